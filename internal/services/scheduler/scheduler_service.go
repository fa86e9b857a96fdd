// -----------------------------------------------------------------------
// Scheduler - Cron-driven repeated orchestration runs. Single-flight: a
// tick that fires while a run is still in progress is skipped.
// -----------------------------------------------------------------------

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/models"
)

// RunFunc executes one orchestration run
type RunFunc func(ctx context.Context, filter interfaces.PortfolioFilter) (models.RunSummary, error)

// Service triggers orchestration runs on a cron schedule
type Service struct {
	run       RunFunc
	filter    interfaces.PortfolioFilter
	cron      *cron.Cron
	logger    arbor.ILogger
	mu        sync.Mutex // Protects the lifecycle flags and run bookkeeping
	started   bool       // Cron lifecycle: set by Start, cleared by Stop
	isRunning bool       // Single-flight guard for a run in progress
	lastRun   *time.Time
	lastError string
}

// NewService creates a scheduler around an orchestration run function.
// The cron spec uses six fields (seconds included).
func NewService(run RunFunc, filter interfaces.PortfolioFilter, logger arbor.ILogger) *Service {
	return &Service{
		run:    run,
		filter: filter,
		cron:   cron.New(cron.WithSeconds()),
		logger: logger,
	}
}

// Start begins the scheduler with the given cron expression
func (s *Service) Start(cronExpr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already running")
	}
	if cronExpr == "" {
		cronExpr = "0 */30 * * * *" // Default: every 30 minutes
	}

	if _, err := s.cron.AddFunc(cronExpr, s.tick); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cron.Start()
	s.started = true
	s.logger.Info().Str("cron_expr", cronExpr).Msg("Scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a scheduled run in flight
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// LastRun returns the completion time of the most recent run, if any,
// and the error message it left behind.
func (s *Service) LastRun() (*time.Time, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastError
}

func (s *Service) tick() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		s.logger.Warn().Msg("Previous run still in progress, skipping tick")
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	defer func() {
		now := time.Now().UTC()
		s.mu.Lock()
		s.isRunning = false
		s.lastRun = &now
		s.mu.Unlock()
	}()

	summary, err := s.run(context.Background(), s.filter)

	s.mu.Lock()
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled run failed")
		return
	}
	s.logger.Info().
		Str("status", summary.Status).
		Int("portfolios", summary.Statistics.TotalPortfolios).
		Msg("Scheduled run complete")
}
