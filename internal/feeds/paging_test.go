package feeds

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/folio/internal/models"
)

// fakeFetcher serves canned pages keyed by "symbol/page" and records calls
type fakeFetcher struct {
	pages map[string][]models.Item
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) FetchPage(_ context.Context, symbol string, page int) ([]models.Item, error) {
	key := symbol + "/" + itoa(page)
	f.calls = append(f.calls, key)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	return f.pages[key], nil
}

func itoa(n int) string {
	return string(rune('0' + n))
}

func TestCollectPaged_StopsAtFirstPageWithRecentHits(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	recent := now.Unix() - 3600
	stale := now.Add(-72 * time.Hour).Unix()

	fetcher := &fakeFetcher{pages: map[string][]models.Item{
		"AAPL/1": {item("a1", recent), item("old", stale)},
		"AAPL/2": {item("a2", recent)},
	}}

	params := DefaultPageParams()
	params.ReferenceSymbols = nil
	result := CollectPaged(context.Background(), fetcher, []string{"AAPL"}, now, params)

	assert.Equal(t, []string{"a1"}, ids(result))
	assert.Equal(t, []string{"AAPL/1"}, fetcher.calls, "page 2 never fetched once page 1 hits")
}

func TestCollectPaged_AdvancesPastStalePages(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	recent := now.Unix() - 3600
	stale := now.Add(-72 * time.Hour).Unix()

	fetcher := &fakeFetcher{pages: map[string][]models.Item{
		"MSFT/1": {item("s1", stale), item("s2", stale)},
		"MSFT/2": {item("m1", recent)},
	}}

	params := DefaultPageParams()
	params.ReferenceSymbols = nil
	result := CollectPaged(context.Background(), fetcher, []string{"MSFT"}, now, params)

	assert.Equal(t, []string{"m1"}, ids(result))
	assert.Equal(t, []string{"MSFT/1", "MSFT/2"}, fetcher.calls)
}

func TestCollectPaged_FallsBackToReferenceSymbols(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	recent := now.Unix() - 3600

	fetcher := &fakeFetcher{pages: map[string][]models.Item{
		"TSLA/1": {item("t1", recent)},
		"SPX/1":  {item("x1", recent), item("t1", recent), item("x2", recent)},
	}}

	params := DefaultPageParams()
	params.MaxItems = 3
	params.ReferenceSymbols = []string{"SPX", "NDX"}
	result := CollectPaged(context.Background(), fetcher, []string{"TSLA"}, now, params)

	// t1 from the symbol pass, x1/x2 from the fallback, t1 not repeated
	assert.Equal(t, []string{"t1", "x1", "x2"}, ids(result))
	assert.NotContains(t, fetcher.calls, "NDX/1", "floor reached before second reference symbol")
}

func TestCollectPaged_FetchErrorCountsAsEmptyPage(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	recent := now.Unix() - 3600

	fetcher := &fakeFetcher{
		pages: map[string][]models.Item{"NVDA/2": {item("n1", recent)}},
		errs:  map[string]error{"NVDA/1": errors.New("upstream 503")},
	}

	params := DefaultPageParams()
	params.ReferenceSymbols = nil
	result := CollectPaged(context.Background(), fetcher, []string{"NVDA"}, now, params)

	assert.Equal(t, []string{"n1"}, ids(result))
}

func TestCollectPaged_CapsAtMaxItems(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	recent := now.Unix() - 3600

	fetcher := &fakeFetcher{pages: map[string][]models.Item{
		"AAPL/1": {item("a", recent), item("b", recent), item("c", recent), item("d", recent), item("e", recent), item("f", recent), item("g", recent)},
	}}

	params := DefaultPageParams()
	params.ReferenceSymbols = nil
	result := CollectPaged(context.Background(), fetcher, []string{"AAPL"}, now, params)

	assert.Len(t, result, params.MaxItems)
}
