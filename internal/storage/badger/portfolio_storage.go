// -----------------------------------------------------------------------
// PortfolioStorage - Badgerhold-backed directory of users' portfolios
// -----------------------------------------------------------------------

package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/models"
)

// PortfolioStorage implements the portfolio directory on badgerhold
type PortfolioStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

var _ interfaces.PortfolioDirectory = (*PortfolioStorage)(nil)

// NewPortfolioStorage creates a badgerhold-backed portfolio directory
func NewPortfolioStorage(db *BadgerDB, logger arbor.ILogger) *PortfolioStorage {
	return &PortfolioStorage{db: db, logger: logger}
}

// ListPortfolios returns portfolios matching the filter. The portfolio-ID
// filter takes precedence over the user-ID filter when both are set.
func (s *PortfolioStorage) ListPortfolios(ctx context.Context, filter interfaces.PortfolioFilter) ([]models.Portfolio, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if filter.PortfolioID != "" {
		portfolio, err := s.GetPortfolio(ctx, filter.PortfolioID)
		if errors.Is(err, interfaces.ErrPortfolioNotFound) {
			return []models.Portfolio{}, nil
		}
		if err != nil {
			return nil, err
		}
		return []models.Portfolio{*portfolio}, nil
	}

	var portfolios []models.Portfolio
	var query *badgerhold.Query
	if filter.UserID != "" {
		query = badgerhold.Where("UserID").Eq(filter.UserID).Index("UserID")
	}

	if err := s.db.Store().Find(&portfolios, query); err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	if portfolios == nil {
		portfolios = []models.Portfolio{}
	}
	return portfolios, nil
}

// GetPortfolio returns a single portfolio by ID
func (s *PortfolioStorage) GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var portfolio models.Portfolio
	err := s.db.Store().Get(id, &portfolio)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrPortfolioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio %s: %w", id, err)
	}
	return &portfolio, nil
}

// SavePortfolio inserts or updates a portfolio record. A missing ID is
// assigned; timestamps are maintained here.
func (s *PortfolioStorage) SavePortfolio(ctx context.Context, portfolio *models.Portfolio) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if portfolio.ID == "" {
		portfolio.ID = uuid.New().String()
		portfolio.CreatedAt = now
	}
	if portfolio.CreatedAt.IsZero() {
		portfolio.CreatedAt = now
	}
	portfolio.UpdatedAt = now

	if err := s.db.Store().Upsert(portfolio.ID, portfolio); err != nil {
		return fmt.Errorf("failed to save portfolio %s: %w", portfolio.ID, err)
	}

	s.logger.Debug().
		Str("portfolio_id", portfolio.ID).
		Str("user_id", portfolio.UserID).
		Int("assets", len(portfolio.Assets)).
		Msg("Portfolio saved")
	return nil
}
