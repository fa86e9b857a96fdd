package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/folio/internal/models"
)

// ErrPortfolioNotFound is returned when a portfolio lookup matches nothing
var ErrPortfolioNotFound = errors.New("portfolio not found")

// PortfolioFilter narrows a directory listing. PortfolioID takes
// precedence over UserID when both are set.
type PortfolioFilter struct {
	PortfolioID string
	UserID      string
}

// PortfolioDirectory is the catalogue of users and their portfolios
type PortfolioDirectory interface {
	// ListPortfolios returns portfolios matching the filter. A zero
	// filter returns every portfolio.
	ListPortfolios(ctx context.Context, filter PortfolioFilter) ([]models.Portfolio, error)

	// GetPortfolio returns a single portfolio by ID, or ErrPortfolioNotFound
	GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error)

	// SavePortfolio inserts or updates a portfolio record
	SavePortfolio(ctx context.Context, portfolio *models.Portfolio) error
}
