// -----------------------------------------------------------------------
// Orchestrator - Fans portfolio tasks out over a bounded worker pool
// and consolidates the run summary. A panicking task becomes an
// exception result; nothing escapes the run.
// -----------------------------------------------------------------------

package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/models"
)

const (
	// SummaryObjectPath is where the run summary lands in object storage
	SummaryObjectPath = "orchestration/summary.json"

	// StatusCompleted marks a run that processed at least one portfolio
	StatusCompleted = "completed"
	// StatusNoPortfolios marks a run where the filter matched nothing
	StatusNoPortfolios = "no_portfolios"
)

// TaskRunner executes the pipeline for a single portfolio
type TaskRunner interface {
	Execute(ctx context.Context, task models.TaskConfig) models.TaskResult
}

// Orchestrator drives one collection run across all matching portfolios
type Orchestrator struct {
	directory interfaces.PortfolioDirectory
	runner    TaskRunner
	storage   interfaces.ObjectStorage
	config    *common.Config
	logger    arbor.ILogger
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(directory interfaces.PortfolioDirectory, runner TaskRunner, storage interfaces.ObjectStorage, config *common.Config, logger arbor.ILogger) *Orchestrator {
	return &Orchestrator{
		directory: directory,
		runner:    runner,
		storage:   storage,
		config:    config,
		logger:    logger,
	}
}

// Run processes every portfolio matching the filter and returns the run
// summary. The run always drains to completion; individual task
// failures never abort it.
func (o *Orchestrator) Run(ctx context.Context, filter interfaces.PortfolioFilter) (models.RunSummary, error) {
	started := time.Now().UTC()

	portfolios, err := o.directory.ListPortfolios(ctx, filter)
	if err != nil {
		return models.RunSummary{}, fmt.Errorf("failed to load portfolios: %w", err)
	}

	tasks := o.buildTasks(portfolios)
	o.logger.Info().
		Int("matched", len(portfolios)).
		Int("runnable", len(tasks)).
		Bool("parallel", o.config.Orchestrator.Parallel).
		Msg("Orchestration run starting")

	if len(tasks) == 0 {
		summary := models.NewRunSummary(nil, started, time.Now().UTC())
		summary.Status = StatusNoPortfolios
		o.persistSummary(ctx, summary)
		return summary, nil
	}

	var results []models.TaskResult
	if o.config.Orchestrator.Parallel {
		results = o.runParallel(ctx, tasks)
	} else {
		results = o.runSequential(ctx, tasks)
	}

	summary := models.NewRunSummary(results, started, time.Now().UTC())
	summary.Status = StatusCompleted

	o.logger.Info().
		Int("total", summary.Statistics.TotalPortfolios).
		Int("successful", summary.Statistics.Successful).
		Int("failed", summary.Statistics.Failed).
		Str("success_rate", fmt.Sprintf("%.2f%%", summary.Statistics.SuccessRate)).
		Str("duration", fmt.Sprintf("%.2fs", summary.TotalDurationSeconds)).
		Msg("Orchestration run complete")

	o.persistSummary(ctx, summary)
	return summary, nil
}

// buildTasks converts portfolios into task configs, dropping those
// without any assets.
func (o *Orchestrator) buildTasks(portfolios []models.Portfolio) []models.TaskConfig {
	tasks := make([]models.TaskConfig, 0, len(portfolios))
	for _, portfolio := range portfolios {
		if !portfolio.HasAssets() {
			o.logger.Debug().
				Str("portfolio_id", portfolio.ID).
				Msg("Skipping portfolio without assets")
			continue
		}
		tasks = append(tasks, models.TaskConfig{
			PortfolioID:   portfolio.ID,
			PortfolioName: portfolio.Name,
			UserID:        portfolio.UserID,
			Symbols:       portfolio.Symbols(),
			Assets:        portfolio.Assets,
		})
	}
	return tasks
}

// runParallel drains the task list through a fixed pool of workers.
// Result order reflects completion order.
func (o *Orchestrator) runParallel(ctx context.Context, tasks []models.TaskConfig) []models.TaskResult {
	workers := o.config.Orchestrator.MaxWorkers
	if workers <= 0 {
		workers = 3
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	taskCh := make(chan models.TaskConfig)
	resultCh := make(chan models.TaskResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskCh {
				resultCh <- o.runTask(ctx, task)
			}
		}()
	}

	go func() {
		for _, task := range tasks {
			taskCh <- task
		}
		close(taskCh)
		wg.Wait()
		close(resultCh)
	}()

	results := make([]models.TaskResult, 0, len(tasks))
	for result := range resultCh {
		results = append(results, result)
	}
	return results
}

func (o *Orchestrator) runSequential(ctx context.Context, tasks []models.TaskConfig) []models.TaskResult {
	results := make([]models.TaskResult, 0, len(tasks))
	for _, task := range tasks {
		results = append(results, o.runTask(ctx, task))
	}
	return results
}

// runTask isolates a single task: a panic inside the runner becomes an
// exception result instead of taking down the pool.
func (o *Orchestrator) runTask(ctx context.Context, task models.TaskConfig) (result models.TaskResult) {
	started := time.Now().UTC()
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().
				Str("portfolio_id", task.PortfolioID).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Portfolio task panicked")
			result = models.TaskResult{
				PortfolioID:   task.PortfolioID,
				PortfolioName: task.PortfolioName,
				UserID:        task.UserID,
				Status:        models.TaskStatusException,
				Errors:        []string{fmt.Sprintf("task_error: %v", r)},
				AssetCount:    len(task.Symbols),
				StartedAt:     started,
			}
			result.Finish(time.Now().UTC())
		}
	}()
	return o.runner.Execute(ctx, task)
}

// persistSummary writes the run summary to the local summary file and
// uploads it to object storage. Failures are logged, never fatal; the
// summary has already been returned to the caller.
func (o *Orchestrator) persistSummary(ctx context.Context, summary models.RunSummary) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		o.logger.Warn().Err(err).Msg("Failed to serialize run summary")
		return
	}

	if path := o.config.Orchestrator.SummaryPath; path != "" {
		if err := os.WriteFile(path, data, 0644); err != nil {
			o.logger.Warn().Str("path", path).Err(err).Msg("Failed to write summary file")
		}
	}

	if o.storage != nil {
		if err := o.storage.Upload(ctx, o.config.Storage.Bucket, SummaryObjectPath, data, "application/json"); err != nil {
			o.logger.Warn().Err(err).Msg("Failed to upload run summary")
		}
	}
}
