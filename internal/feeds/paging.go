// -----------------------------------------------------------------------
// Paged collection - Walks a paginated source per symbol, stopping at
// the first page with recent hits, with a reference-symbol fallback
// when the per-symbol pass comes up short.
// -----------------------------------------------------------------------

package feeds

import (
	"context"
	"time"

	"github.com/ternarybob/folio/internal/models"
)

// PageFetcher retrieves one result page for a topic symbol.
// Page numbering starts at 1.
type PageFetcher interface {
	FetchPage(ctx context.Context, symbol string, page int) ([]models.Item, error)
}

// PageParams tunes a paged collection pass
type PageParams struct {
	// MaxPages bounds how deep the per-symbol walk goes
	MaxPages int
	// Cutoff is the recency window; older entries are ignored
	Cutoff time.Duration
	// MaxItems caps the overall result and sets the fallback floor
	MaxItems int
	// ReferenceSymbols fill the result when the per-symbol pass is short
	ReferenceSymbols []string
}

// DefaultPageParams returns the standard pagination tuning
func DefaultPageParams() PageParams {
	return PageParams{
		MaxPages:         2,
		Cutoff:           48 * time.Hour,
		MaxItems:         5,
		ReferenceSymbols: []string{"SPX", "NDX"},
	}
}

// CollectPaged gathers recent entries for each symbol. Per symbol it
// walks pages 1..MaxPages and stops at the FIRST page yielding any
// entry inside the cutoff window; exhaustively scanning every page
// would not be worth the latency. Entries are deduplicated by ID
// across pages and symbols. If the total falls below MaxItems after
// the symbol pass, the same walk runs over ReferenceSymbols to fill
// the remainder. A failed page fetch counts as an empty page.
func CollectPaged(ctx context.Context, fetcher PageFetcher, symbols []string, now time.Time, params PageParams) []models.Item {
	if params.MaxItems <= 0 || params.MaxPages <= 0 {
		return []models.Item{}
	}

	seen := make(map[string]struct{})
	collected := make([]models.Item, 0, params.MaxItems)

	collected = collectPass(ctx, fetcher, symbols, now, params, seen, collected)
	if len(collected) < params.MaxItems {
		collected = collectPass(ctx, fetcher, params.ReferenceSymbols, now, params, seen, collected)
	}

	if len(collected) > params.MaxItems {
		collected = collected[:params.MaxItems]
	}
	return collected
}

func collectPass(ctx context.Context, fetcher PageFetcher, symbols []string, now time.Time, params PageParams, seen map[string]struct{}, collected []models.Item) []models.Item {
	floor := now.Add(-params.Cutoff).Unix()

	for _, symbol := range symbols {
		if len(collected) >= params.MaxItems {
			break
		}
		for page := 1; page <= params.MaxPages; page++ {
			items, err := fetcher.FetchPage(ctx, symbol, page)
			if err != nil {
				continue
			}

			hits := 0
			for _, item := range items {
				if item.SortEpoch < floor || item.SortEpoch <= 0 {
					continue
				}
				hits++
				if item.ID == "" {
					continue
				}
				if _, ok := seen[item.ID]; ok {
					continue
				}
				seen[item.ID] = struct{}{}
				collected = append(collected, item)
			}
			if hits > 0 {
				break
			}
		}
	}
	return collected
}
