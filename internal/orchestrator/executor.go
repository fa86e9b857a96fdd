// -----------------------------------------------------------------------
// Executor - Runs the collection pipeline for one portfolio: sentiment,
// news merge against the previous snapshot, social mentions, commentary,
// then a single overwrite upload. Steps are isolated; a failing step
// records an error and contributes empty data.
// -----------------------------------------------------------------------

package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/feeds"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/models"
)

// SnapshotFilename is the per-user payload document name
const SnapshotFilename = "portfolio_news.json"

// Collectors bundles the feed sources a task draws from. Any nil
// collector simply skips its step.
type Collectors struct {
	Sentiment  interfaces.SentimentCollector
	News       interfaces.NewsCollector
	Social     interfaces.SocialCollector
	Commentary interfaces.CommentaryCollector
}

// Executor runs the per-portfolio pipeline
type Executor struct {
	collectors Collectors
	storage    interfaces.ObjectStorage
	config     *common.Config
	logger     arbor.ILogger
}

// NewExecutor creates a portfolio task executor
func NewExecutor(collectors Collectors, storage interfaces.ObjectStorage, config *common.Config, logger arbor.ILogger) *Executor {
	return &Executor{
		collectors: collectors,
		storage:    storage,
		config:     config,
		logger:     logger,
	}
}

// Execute runs every pipeline step for one portfolio and returns the
// finalized result. The result is never mutated after return.
func (e *Executor) Execute(ctx context.Context, task models.TaskConfig) models.TaskResult {
	now := time.Now().UTC()
	result := models.TaskResult{
		PortfolioID:   task.PortfolioID,
		PortfolioName: task.PortfolioName,
		UserID:        task.UserID,
		Status:        models.TaskStatusPending,
		AssetCount:    len(task.Symbols),
		StartedAt:     now,
	}

	e.logger.Info().
		Str("portfolio_id", task.PortfolioID).
		Str("portfolio", task.PortfolioName).
		Int("assets", len(task.Symbols)).
		Msg("Portfolio task started")

	snapshot := models.Snapshot{
		GeneratedAt:   now,
		PortfolioID:   task.PortfolioID,
		PortfolioName: task.PortfolioName,
		UserID:        task.UserID,
		PortfolioNews: []models.Item{},
		Commentary:    []models.Item{},
	}

	snapshot.MarketSentiment = e.collectSentiment(ctx, &result)
	snapshot.PortfolioNews = e.collectNews(ctx, task, now, &result)
	snapshot.SocialMentions = e.collectSocial(ctx, task, now, &result)
	snapshot.Commentary = e.collectCommentary(ctx, task, &result)

	result.NewsCount = len(snapshot.PortfolioNews)
	result.SocialCount = len(snapshot.SocialMentions)
	result.CommentaryCount = len(snapshot.Commentary)

	e.upload(ctx, task, snapshot, &result)

	result.Finish(time.Now().UTC())
	e.logger.Info().
		Str("portfolio_id", task.PortfolioID).
		Str("status", string(result.Status)).
		Int("news", result.NewsCount).
		Int("social", result.SocialCount).
		Int("commentary", result.CommentaryCount).
		Str("duration", fmt.Sprintf("%.2fs", result.DurationSeconds)).
		Msg("Portfolio task finished")
	return result
}

func (e *Executor) collectSentiment(ctx context.Context, result *models.TaskResult) *models.MarketSentiment {
	if !e.config.Feeds.SentimentEnabled || e.collectors.Sentiment == nil {
		return nil
	}
	sentiment, err := e.collectors.Sentiment.Fetch(ctx)
	if err != nil {
		result.AddError("sentiment", err.Error())
		e.logger.Warn().Str("portfolio_id", result.PortfolioID).Err(err).Msg("Sentiment step failed")
		return nil
	}
	return sentiment
}

// collectNews downloads the previous snapshot, gates fresh items to the
// recency window minus already-seen IDs, and merges. The cap scales
// with portfolio size.
func (e *Executor) collectNews(ctx context.Context, task models.TaskConfig, now time.Time, result *models.TaskResult) []models.Item {
	previous := e.previousNews(ctx, task)

	limit := e.config.Feeds.MaxNewsPerAsset * len(task.Symbols)
	if e.collectors.News == nil {
		return feeds.Merge(previous, nil, limit).Items
	}

	incoming, err := e.collectors.News.Fetch(ctx, task.Symbols, e.config.Feeds.MaxNewsPerAsset)
	if err != nil {
		result.AddError("news", err.Error())
		e.logger.Warn().Str("portfolio_id", task.PortfolioID).Err(err).Msg("News step failed")
		incoming = nil
	}

	gated := feeds.ExcludeSeen(
		feeds.RecentOnly(incoming, e.config.Feeds.RecencyWindow(), now),
		previous.IDs(),
	)
	return feeds.Merge(previous, gated, limit).Items
}

// previousNews reads the prior snapshot blob; a missing or unreadable
// blob behaves as an empty history.
func (e *Executor) previousNews(ctx context.Context, task models.TaskConfig) models.Collection {
	empty := models.NewCollection(0)

	data, err := e.storage.Download(ctx, e.config.Storage.Bucket, task.UserID+"/"+SnapshotFilename)
	if err != nil {
		if err != interfaces.ErrObjectNotFound {
			e.logger.Warn().Str("portfolio_id", task.PortfolioID).Err(err).Msg("Previous snapshot unreadable, starting fresh")
		}
		return empty
	}

	var prior models.Snapshot
	if err := json.Unmarshal(data, &prior); err != nil {
		e.logger.Warn().Str("portfolio_id", task.PortfolioID).Err(err).Msg("Previous snapshot corrupt, starting fresh")
		return empty
	}

	models.RehydrateEpochs(prior.PortfolioNews)
	return models.Collection{Items: prior.PortfolioNews, Cap: len(prior.PortfolioNews)}
}

func (e *Executor) collectSocial(ctx context.Context, task models.TaskConfig, now time.Time, result *models.TaskResult) []models.SocialPost {
	if !e.config.Feeds.SocialEnabled || e.collectors.Social == nil {
		return nil
	}

	posts, err := e.collectors.Social.Fetch(ctx, task.Symbols, e.config.Feeds.SocialFetchLimit)
	if err != nil {
		result.AddError("social", err.Error())
		e.logger.Warn().Str("portfolio_id", task.PortfolioID).Err(err).Msg("Social step failed")
		return []models.SocialPost{}
	}

	return feeds.RankSocialPosts(posts, now, e.socialParams())
}

func (e *Executor) socialParams() feeds.SocialScoreParams {
	cfg := e.config.Feeds
	params := feeds.DefaultSocialScoreParams()
	if cfg.SocialHalfLifeHours > 0 {
		params.HalfLife = time.Duration(cfg.SocialHalfLifeHours) * time.Hour
	}
	if cfg.SocialMaxAgeHours > 0 {
		params.MaxAge = time.Duration(cfg.SocialMaxAgeHours) * time.Hour
	}
	if cfg.SocialMinEngagement > 0 {
		params.MinEngagement = float64(cfg.SocialMinEngagement)
	}
	if cfg.SocialMaxPosts > 0 {
		params.MaxPosts = cfg.SocialMaxPosts
	}
	return params
}

func (e *Executor) collectCommentary(ctx context.Context, task models.TaskConfig, result *models.TaskResult) []models.Item {
	if !e.config.Feeds.CommentaryEnabled || e.collectors.Commentary == nil {
		return []models.Item{}
	}

	items, err := e.collectors.Commentary.Fetch(ctx, task.Symbols, e.config.Feeds.CommentaryMaxItems)
	if err != nil {
		result.AddError("commentary", err.Error())
		e.logger.Warn().Str("portfolio_id", task.PortfolioID).Err(err).Msg("Commentary step failed")
		return []models.Item{}
	}
	if items == nil {
		items = []models.Item{}
	}
	return items
}

// upload serializes the snapshot and overwrites the per-user document.
// Serialization failure maps to upload_failed, a storage error to
// upload_error.
func (e *Executor) upload(ctx context.Context, task models.TaskConfig, snapshot models.Snapshot, result *models.TaskResult) {
	snapshot.Assets = e.assetSnapshot(task)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		result.AddError("upload", err.Error())
		result.Status = models.TaskStatusUploadFailed
		return
	}

	path := task.UserID + "/" + SnapshotFilename
	if err := e.storage.Upload(ctx, e.config.Storage.Bucket, path, data, "application/json"); err != nil {
		result.AddError("upload", err.Error())
		result.Status = models.TaskStatusUploadError
		e.logger.Error().Str("portfolio_id", task.PortfolioID).Str("path", path).Err(err).Msg("Snapshot upload failed")
		return
	}

	result.StoragePath = path
	if len(result.Errors) > 0 {
		result.Status = models.TaskStatusPartial
	} else {
		result.Status = models.TaskStatusSuccess
	}
}

func (e *Executor) assetSnapshot(task models.TaskConfig) []models.Asset {
	if len(task.Assets) > 0 {
		return task.Assets
	}
	assets := make([]models.Asset, 0, len(task.Symbols))
	for _, symbol := range task.Symbols {
		assets = append(assets, models.Asset{Symbol: symbol})
	}
	return assets
}
