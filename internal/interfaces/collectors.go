// -----------------------------------------------------------------------
// Collector contracts - Remote feed sources consumed by portfolio tasks
// A collector error never aborts a task; callers record the error and
// continue with an empty result for that step.
// -----------------------------------------------------------------------

package interfaces

import (
	"context"

	"github.com/ternarybob/folio/internal/models"
)

// SentimentCollector fetches the current market fear/greed gauge
type SentimentCollector interface {
	// Fetch returns the current gauge value and banded label
	Fetch(ctx context.Context) (*models.MarketSentiment, error)
}

// NewsCollector fetches recent news entries for a set of asset symbols
type NewsCollector interface {
	// Fetch returns up to maxPerSymbol normalized entries per symbol,
	// interleaved round-robin across symbols. An empty result is not
	// an error.
	Fetch(ctx context.Context, symbols []string, maxPerSymbol int) ([]models.Item, error)
}

// CommentaryCollector fetches analyst commentary for a set of symbols
type CommentaryCollector interface {
	// Fetch returns up to maxItems quality-filtered commentary entries
	Fetch(ctx context.Context, symbols []string, maxItems int) ([]models.Item, error)
}

// SocialCollector fetches community discussion posts matching keywords
type SocialCollector interface {
	// Fetch returns discussion entries with engagement metadata
	// populated, deduplicated by ID. Callers rank and truncate.
	Fetch(ctx context.Context, keywords []string, limit int) ([]models.SocialPost, error)
}
