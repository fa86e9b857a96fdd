// -----------------------------------------------------------------------
// News collector - Symbol search endpoint returning mixed-shape JSON
// news records, normalized into the fixed item schema.
// -----------------------------------------------------------------------

package collectors

import (
	"context"
	"net/url"
	"strconv"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/models"
)

// DefaultNewsBaseURL is the default news provider endpoint
const DefaultNewsBaseURL = "https://query1.finance.yahoo.com"

// NewsClient fetches per-symbol news from a quote search API
type NewsClient struct {
	*restClient
}

var _ interfaces.NewsCollector = (*NewsClient)(nil)

// NewNewsClient creates a news collector client
func NewNewsClient(opts ...Option) *NewsClient {
	return &NewsClient{restClient: newRestClient(DefaultNewsBaseURL, opts...)}
}

type newsSearchResponse struct {
	News []map[string]interface{} `json:"news"`
}

// Fetch returns up to maxPerSymbol normalized entries per symbol,
// interleaved round-robin so no single holding dominates the merged
// feed. Per-symbol fetch failures skip that symbol rather than failing
// the whole call; an error is returned only when every symbol fails.
func (c *NewsClient) Fetch(ctx context.Context, symbols []string, maxPerSymbol int) ([]models.Item, error) {
	symbols = common.UniqueSymbols(symbols)
	if len(symbols) == 0 || maxPerSymbol <= 0 {
		return []models.Item{}, nil
	}

	perSymbol := make([][]models.Item, 0, len(symbols))
	var lastErr error
	failures := 0

	for _, symbol := range symbols {
		items, err := c.fetchSymbol(ctx, symbol, maxPerSymbol)
		if err != nil {
			failures++
			lastErr = err
			if c.logger != nil {
				c.logger.Warn().
					Str("symbol", symbol).
					Err(err).
					Msg("News fetch failed for symbol")
			}
			continue
		}
		perSymbol = append(perSymbol, items)
	}

	if failures == len(symbols) && lastErr != nil {
		return nil, lastErr
	}

	return interleave(perSymbol), nil
}

func (c *NewsClient) fetchSymbol(ctx context.Context, symbol string, count int) ([]models.Item, error) {
	params := url.Values{}
	params.Set("q", symbol)
	params.Set("newsCount", strconv.Itoa(count))
	params.Set("quotesCount", "0")

	var response newsSearchResponse
	if err := c.getJSON(ctx, "/v1/finance/search", params, &response); err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(response.News))
	for _, raw := range response.News {
		item, ok := models.NormalizeRaw(raw)
		if !ok {
			continue
		}
		item.Ticker = symbol
		item.Source = "news"
		items = append(items, item)
		if len(items) >= count {
			break
		}
	}
	return items, nil
}

// interleave flattens per-symbol lists round-robin: first item of each
// symbol, then second of each, and so on.
func interleave(lists [][]models.Item) []models.Item {
	total := 0
	longest := 0
	for _, list := range lists {
		total += len(list)
		if len(list) > longest {
			longest = len(list)
		}
	}

	out := make([]models.Item, 0, total)
	for i := 0; i < longest; i++ {
		for _, list := range lists {
			if i < len(list) {
				out = append(out, list[i])
			}
		}
	}
	return out
}
