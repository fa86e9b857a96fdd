package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment  string             `toml:"environment"` // "development" or "production"
	Logging      LoggingConfig      `toml:"logging"`
	Storage      StorageConfig      `toml:"storage"`
	Orchestrator OrchestratorConfig `toml:"orchestrator"`
	Feeds        FeedsConfig        `toml:"feeds"`
	Collectors   CollectorsConfig   `toml:"collectors"`
	Scheduler    SchedulerConfig    `toml:"scheduler"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
	Bucket string       `toml:"bucket" validate:"required"` // Object storage bucket for snapshots
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

// OrchestratorConfig controls how portfolio tasks are scheduled
type OrchestratorConfig struct {
	Parallel    bool   `toml:"parallel"`
	MaxWorkers  int    `toml:"max_workers" validate:"min=1"` // Pool width; kept low to stay under source rate limits
	SummaryPath string `toml:"summary_path"`                 // Local file for the run summary JSON
}

// FeedsConfig holds the merge/scoring/paging tunables for every feed type.
// These map 1:1 onto the ranking parameters in internal/feeds.
type FeedsConfig struct {
	MaxNewsPerAsset      int      `toml:"max_news_per_asset" validate:"min=1"`
	NewsRecencyWindow    string   `toml:"news_recency_window"` // Only items newer than this enter a merge (default "30m")
	SentimentEnabled     bool     `toml:"sentiment_enabled"`
	SocialEnabled        bool     `toml:"social_enabled"`
	SocialMaxPosts       int      `toml:"social_max_posts" validate:"min=1"`
	SocialHalfLifeHours  int      `toml:"social_half_life_hours" validate:"min=1"`
	SocialMaxAgeHours    int      `toml:"social_max_age_hours" validate:"min=1"`
	SocialMinEngagement  int      `toml:"social_min_engagement"`
	SocialFetchLimit     int      `toml:"social_fetch_limit" validate:"min=1"` // Raw posts requested per task before ranking trims them
	CommentaryEnabled    bool     `toml:"commentary_enabled"`
	CommentaryMaxItems   int      `toml:"commentary_max_items" validate:"min=1"`
	CommentaryMaxPages   int      `toml:"commentary_max_pages" validate:"min=1"`
	CommentaryCutoffHrs  int      `toml:"commentary_cutoff_hours" validate:"min=1"`
	CommentaryMinTitle   int      `toml:"commentary_min_title_length"`
	CommentaryMinSummary int      `toml:"commentary_min_summary_length"`
	SpamKeywords         []string `toml:"spam_keywords"`      // Extends the built-in spam keyword set
	QualityIndicators    []string `toml:"quality_indicators"` // Extends the built-in quality indicator set
}

// CollectorsConfig holds per-source client configuration
type CollectorsConfig struct {
	UserAgent        string   `toml:"user_agent"`
	RequestTimeout   string   `toml:"request_timeout"`    // HTTP timeout per collector call (default "10s")
	RateLimit        int      `toml:"rate_limit"`         // Requests per second per collector client
	NewsBaseURL      string   `toml:"news_base_url"`      // News provider API base URL
	SentimentURL     string   `toml:"sentiment_url"`      // Fear/greed gauge endpoint
	CommentaryURL    string   `toml:"commentary_base_url"`
	SocialBaseURL    string   `toml:"social_base_url"`
	SocialChannels   []string `toml:"social_channels"`   // Channels polled for hot posts and mention search
	ReferenceSymbols []string `toml:"reference_symbols"` // Broad market symbols used as commentary fallback
}

// SchedulerConfig enables repeated orchestration runs on a cron schedule
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule format
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability; only
// user-facing settings should be exposed in folio.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
			Bucket: "portfolio-files",
		},
		Orchestrator: OrchestratorConfig{
			Parallel:    true,
			MaxWorkers:  3, // Low pool width avoids rate limiting on external sources
			SummaryPath: "orchestration_summary.json",
		},
		Feeds: FeedsConfig{
			MaxNewsPerAsset:      3,
			NewsRecencyWindow:    "30m",
			SentimentEnabled:     true,
			SocialEnabled:        true,
			SocialMaxPosts:       3,
			SocialHalfLifeHours:  36,
			SocialMaxAgeHours:    96,
			SocialMinEngagement:  5,
			SocialFetchLimit:     25,
			CommentaryEnabled:    true,
			CommentaryMaxItems:   5,
			CommentaryMaxPages:   2,
			CommentaryCutoffHrs:  48,
			CommentaryMinTitle:   20,
			CommentaryMinSummary: 50,
		},
		Collectors: CollectorsConfig{
			UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36",
			RequestTimeout:   "10s",
			RateLimit:        2,
			NewsBaseURL:      "https://query1.finance.yahoo.com",
			SentimentURL:     "https://production.dataviz.cnn.io/index/fearandgreed/graphdata",
			CommentaryURL:    "https://medium.com/feed/tag",
			SocialBaseURL:    "https://www.reddit.com",
			SocialChannels:   []string{"investing", "wallstreetbets", "stocks", "options", "trading", "CryptoCurrency"},
			ReferenceSymbols: []string{"SPX", "NDX"},
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Schedule: "0 */30 * * * *",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the loaded configuration using validator tags plus the
// duration fields that toml keeps as strings.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := time.ParseDuration(c.Feeds.NewsRecencyWindow); err != nil {
		return fmt.Errorf("invalid feeds.news_recency_window %q: %w", c.Feeds.NewsRecencyWindow, err)
	}
	if _, err := time.ParseDuration(c.Collectors.RequestTimeout); err != nil {
		return fmt.Errorf("invalid collectors.request_timeout %q: %w", c.Collectors.RequestTimeout, err)
	}

	return nil
}

// RecencyWindow returns the parsed recency gate duration
func (c *FeedsConfig) RecencyWindow() time.Duration {
	d, err := time.ParseDuration(c.NewsRecencyWindow)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}

// CutoffWindow returns the commentary recency cutoff as a duration
func (c *FeedsConfig) CutoffWindow() time.Duration {
	if c.CommentaryCutoffHrs <= 0 {
		return 48 * time.Hour
	}
	return time.Duration(c.CommentaryCutoffHrs) * time.Hour
}

// Timeout returns the parsed per-call HTTP timeout
func (c *CollectorsConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: FOLIO_ENV, fallback: GO_ENV)
	if env := os.Getenv("FOLIO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Logging configuration
	if level := os.Getenv("FOLIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("FOLIO_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Storage configuration
	if badgerPath := os.Getenv("FOLIO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if bucket := os.Getenv("FOLIO_STORAGE_BUCKET"); bucket != "" {
		config.Storage.Bucket = bucket
	}

	// Orchestrator configuration
	if parallel := os.Getenv("FOLIO_PARALLEL_EXECUTION"); parallel != "" {
		if p, err := strconv.ParseBool(parallel); err == nil {
			config.Orchestrator.Parallel = p
		}
	}
	if maxWorkers := os.Getenv("FOLIO_MAX_WORKERS"); maxWorkers != "" {
		if mw, err := strconv.Atoi(maxWorkers); err == nil && mw > 0 {
			config.Orchestrator.MaxWorkers = mw
		}
	}
	if summaryPath := os.Getenv("FOLIO_SUMMARY_PATH"); summaryPath != "" {
		config.Orchestrator.SummaryPath = summaryPath
	}

	// Collector configuration
	if userAgent := os.Getenv("FOLIO_COLLECTOR_USER_AGENT"); userAgent != "" {
		config.Collectors.UserAgent = userAgent
	}
	if timeout := os.Getenv("FOLIO_COLLECTOR_REQUEST_TIMEOUT"); timeout != "" {
		if _, err := time.ParseDuration(timeout); err == nil {
			config.Collectors.RequestTimeout = timeout
		}
	}
	if newsURL := os.Getenv("FOLIO_NEWS_BASE_URL"); newsURL != "" {
		config.Collectors.NewsBaseURL = newsURL
	}
	if sentimentURL := os.Getenv("FOLIO_SENTIMENT_URL"); sentimentURL != "" {
		config.Collectors.SentimentURL = sentimentURL
	}
	if commentaryURL := os.Getenv("FOLIO_COMMENTARY_BASE_URL"); commentaryURL != "" {
		config.Collectors.CommentaryURL = commentaryURL
	}
	if socialURL := os.Getenv("FOLIO_SOCIAL_BASE_URL"); socialURL != "" {
		config.Collectors.SocialBaseURL = socialURL
	}

	// Scheduler configuration
	if enabled := os.Getenv("FOLIO_SCHEDULER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = e
		}
	}
	if schedule := os.Getenv("FOLIO_SCHEDULER_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
