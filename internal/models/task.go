// -----------------------------------------------------------------------
// Task - Per-portfolio run configuration, result and run-level summary
// -----------------------------------------------------------------------

package models

import (
	"math"
	"time"
)

// TaskStatus describes the outcome of a single portfolio task
type TaskStatus string

const (
	// TaskStatusPending is the initial state before any step has run
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusSuccess means every step including upload completed
	TaskStatusSuccess TaskStatus = "success"
	// TaskStatusPartial means the payload uploaded but one or more
	// collection steps recorded an error
	TaskStatusPartial TaskStatus = "partial"
	// TaskStatusUploadFailed means the payload was built but the store rejected it
	TaskStatusUploadFailed TaskStatus = "upload_failed"
	// TaskStatusUploadError means the upload itself raised an error
	TaskStatusUploadError TaskStatus = "upload_error"
	// TaskStatusException means the task aborted before producing a payload
	TaskStatusException TaskStatus = "exception"
)

// Terminal reports whether the status is a final state
func (s TaskStatus) Terminal() bool {
	return s != TaskStatusPending
}

// Failed reports whether the status represents a failure mode. Partial
// results still uploaded a payload, so they do not count as failed.
func (s TaskStatus) Failed() bool {
	return s == TaskStatusUploadFailed || s == TaskStatusUploadError || s == TaskStatusException
}

// TaskConfig identifies the portfolio a task operates on. It is built
// fresh per run and immutable during task execution.
type TaskConfig struct {
	PortfolioID   string   `json:"portfolio_id"`
	PortfolioName string   `json:"portfolio_name"`
	UserID        string   `json:"user_id"`
	Symbols       []string `json:"symbols"`
	Assets        []Asset  `json:"assets,omitempty"`
}

// TaskResult captures the outcome of one portfolio task. Errors collects
// per-step failures in "<step>_error: <detail>" form so a partially
// successful run still reports what went wrong.
type TaskResult struct {
	PortfolioID     string     `json:"portfolio_id"`
	PortfolioName   string     `json:"portfolio_name"`
	UserID          string     `json:"user_id"`
	Status          TaskStatus `json:"status"`
	StoragePath     string     `json:"storage_path,omitempty"`
	Errors          []string   `json:"errors,omitempty"`
	AssetCount      int        `json:"asset_count"`
	NewsCount       int        `json:"news_count"`
	SocialCount     int        `json:"social_count"`
	CommentaryCount int        `json:"commentary_count"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     time.Time  `json:"completed_at"`
	DurationSeconds float64    `json:"duration_seconds"`
}

// AddError records a step failure without terminating the task
func (r *TaskResult) AddError(step, detail string) {
	r.Errors = append(r.Errors, step+"_error: "+detail)
}

// Finish stamps the completion time and derives the duration
func (r *TaskResult) Finish(now time.Time) {
	r.CompletedAt = now
	r.DurationSeconds = round2(now.Sub(r.StartedAt).Seconds())
}

// RunStats aggregates outcomes across a whole orchestration run
type RunStats struct {
	TotalPortfolios int     `json:"total_portfolios"`
	Successful      int     `json:"successful"`
	Failed          int     `json:"failed"`
	SuccessRate     float64 `json:"success_rate"`
}

// RunSummary is the persisted record of an orchestration run
type RunSummary struct {
	Status               string       `json:"status,omitempty"`
	OrchestrationDoneAt  time.Time    `json:"orchestration_completed_at"`
	TotalDurationSeconds float64      `json:"total_duration_seconds"`
	Statistics           RunStats     `json:"statistics"`
	Results              []TaskResult `json:"results"`
}

// NewRunSummary builds a summary from task results. Success rate is a
// percentage rounded to two decimals; an empty run reports zero and an
// empty results list, never null.
func NewRunSummary(results []TaskResult, started, completed time.Time) RunSummary {
	if results == nil {
		results = []TaskResult{}
	}
	stats := RunStats{TotalPortfolios: len(results)}
	for _, r := range results {
		if r.Status.Failed() {
			stats.Failed++
		} else {
			stats.Successful++
		}
	}
	if stats.TotalPortfolios > 0 {
		stats.SuccessRate = round2(float64(stats.Successful) / float64(stats.TotalPortfolios) * 100)
	}

	return RunSummary{
		OrchestrationDoneAt:  completed.UTC(),
		TotalDurationSeconds: round2(completed.Sub(started).Seconds()),
		Statistics:           stats,
		Results:              results,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
