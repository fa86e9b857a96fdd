// -----------------------------------------------------------------------
// folio - Portfolio feed aggregation pipeline
// -----------------------------------------------------------------------

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/folio/internal/collectors"
	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/feeds"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/orchestrator"
	"github.com/ternarybob/folio/internal/services/scheduler"
	storage "github.com/ternarybob/folio/internal/storage/badger"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	userFilter   = flag.String("user", "", "Run only portfolios owned by this user ID")
	pfFilter     = flag.String("portfolio", "", "Run only this portfolio ID (takes precedence over -user)")
	sequential   = flag.Bool("sequential", false, "Process portfolios one at a time")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Folio version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner
	var err error

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("folio.toml"); err == nil {
			configFiles = append(configFiles, "folio.toml")
		}
	}

	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *sequential {
		config.Orchestrator.Parallel = false
	}

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Info().
		Str("version", common.GetFullVersion()).
		Str("environment", config.Environment).
		Msg("Folio starting")

	if err := run(); err != nil {
		logger.Fatal().Err(err).Msg("Folio failed")
	}
}

func run() error {
	db, err := storage.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer db.Close()

	objectStore := storage.NewObjectStorage(db, logger)
	directory := storage.NewPortfolioStorage(db, logger)
	executor := orchestrator.NewExecutor(buildCollectors(), objectStore, config, logger)
	orch := orchestrator.NewOrchestrator(directory, executor, objectStore, config, logger)

	filter := interfaces.PortfolioFilter{
		PortfolioID: *pfFilter,
		UserID:      *userFilter,
	}

	if config.Scheduler.Enabled {
		return runScheduled(orch, filter)
	}

	summary, err := orch.Run(context.Background(), filter)
	if err != nil {
		return err
	}

	// Partial failures are reported in the summary, not the exit code;
	// the run itself completed.
	logger.Info().
		Str("status", summary.Status).
		Int("portfolios", summary.Statistics.TotalPortfolios).
		Int("failed", summary.Statistics.Failed).
		Msg("Run finished")
	return nil
}

// runScheduled keeps the process alive and fires runs on the cron
// schedule until interrupted.
func runScheduled(orch *orchestrator.Orchestrator, filter interfaces.PortfolioFilter) error {
	svc := scheduler.NewService(orch.Run, filter, logger)
	if err := svc.Start(config.Scheduler.Schedule); err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("Shutdown signal received")
	return svc.Stop()
}

func buildCollectors() orchestrator.Collectors {
	httpClient := &http.Client{Timeout: config.Collectors.Timeout()}
	opts := func(baseURL string) []collectors.Option {
		return []collectors.Option{
			collectors.WithBaseURL(baseURL),
			collectors.WithLogger(logger),
			collectors.WithUserAgent(config.Collectors.UserAgent),
			collectors.WithRateLimit(config.Collectors.RateLimit),
			collectors.WithHTTPClient(httpClient),
		}
	}

	qualityParams := feeds.DefaultQualityParams()
	if config.Feeds.CommentaryMinTitle > 0 {
		qualityParams.MinTitleLen = config.Feeds.CommentaryMinTitle
	}
	if config.Feeds.CommentaryMinSummary > 0 {
		qualityParams.MinSummaryLen = config.Feeds.CommentaryMinSummary
	}
	qualityParams.ExtraSpamKeywords = config.Feeds.SpamKeywords
	qualityParams.ExtraQualityWords = config.Feeds.QualityIndicators

	pageParams := feeds.DefaultPageParams()
	if config.Feeds.CommentaryMaxPages > 0 {
		pageParams.MaxPages = config.Feeds.CommentaryMaxPages
	}
	if config.Feeds.CommentaryCutoffHrs > 0 {
		pageParams.Cutoff = config.Feeds.CutoffWindow()
	}
	if config.Feeds.CommentaryMaxItems > 0 {
		pageParams.MaxItems = config.Feeds.CommentaryMaxItems
	}
	if len(config.Collectors.ReferenceSymbols) > 0 {
		pageParams.ReferenceSymbols = config.Collectors.ReferenceSymbols
	}

	return orchestrator.Collectors{
		Sentiment: collectors.NewSentimentClient(opts(config.Collectors.SentimentURL)...),
		News:      collectors.NewNewsClient(opts(config.Collectors.NewsBaseURL)...),
		Social: collectors.NewSocialClient(
			config.Collectors.SocialChannels,
			opts(config.Collectors.SocialBaseURL)...,
		),
		Commentary: collectors.NewCommentaryClient(
			feeds.NewQualityFilter(qualityParams),
			pageParams,
			opts(config.Collectors.CommentaryURL)...,
		),
	}
}
