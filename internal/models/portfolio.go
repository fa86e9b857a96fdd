// -----------------------------------------------------------------------
// Portfolio - Directory records for users, portfolios and their assets
// -----------------------------------------------------------------------

package models

import (
	"time"

	"github.com/ternarybob/folio/internal/common"
)

// Asset is a single holding within a portfolio
type Asset struct {
	Symbol           string     `json:"symbol"`
	Name             string     `json:"name,omitempty"`
	Quantity         float64    `json:"quantity,omitempty"`
	AcquisitionPrice float64    `json:"acquisition_price,omitempty"`
	AcquisitionDate  *time.Time `json:"acquisition_date,omitempty"`
	Category         string     `json:"category,omitempty"`
}

// Portfolio is a named set of assets owned by a user
type Portfolio struct {
	ID        string    `json:"id" badgerhold:"key"`
	UserID    string    `json:"user_id" badgerhold:"index"`
	Name      string    `json:"name"`
	Assets    []Asset   `json:"assets"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Symbols returns the portfolio's asset symbols, normalized and deduplicated
// in first-seen order.
func (p Portfolio) Symbols() []string {
	raw := make([]string, 0, len(p.Assets))
	for _, asset := range p.Assets {
		raw = append(raw, asset.Symbol)
	}
	return common.UniqueSymbols(raw)
}

// HasAssets reports whether the portfolio holds at least one asset with a
// non-blank symbol. Portfolios without assets are skipped during runs.
func (p Portfolio) HasAssets() bool {
	return len(p.Symbols()) > 0
}

// User identifies a portfolio owner
type User struct {
	ID    string `json:"id" badgerhold:"key"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}
