// -----------------------------------------------------------------------
// Merge - Deduplicating merge of incoming feed items into a prior
// collection. Pure functions, no I/O, deterministic.
// -----------------------------------------------------------------------

package feeds

import (
	"sort"
	"time"

	"github.com/ternarybob/folio/internal/models"
)

// Merge combines a previous collection with freshly fetched items.
// When the same ID appears on both sides the incoming entry wins.
// Incoming items without an ID are dropped. The result is sorted
// descending by sort epoch, ties broken by ID ascending, and truncated
// to cap. Neither argument is mutated.
func Merge(previous models.Collection, incoming []models.Item, cap int) models.Collection {
	if cap <= 0 {
		return models.NewCollection(0)
	}

	byID := make(map[string]models.Item, len(previous.Items)+len(incoming))
	order := make([]string, 0, len(previous.Items)+len(incoming))

	for _, item := range previous.Items {
		if item.ID == "" {
			continue
		}
		if _, ok := byID[item.ID]; !ok {
			order = append(order, item.ID)
		}
		byID[item.ID] = item
	}
	for _, item := range incoming {
		if item.ID == "" {
			continue
		}
		if _, ok := byID[item.ID]; !ok {
			order = append(order, item.ID)
		}
		byID[item.ID] = item
	}

	merged := make([]models.Item, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id])
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].SortEpoch != merged[j].SortEpoch {
			return merged[i].SortEpoch > merged[j].SortEpoch
		}
		return merged[i].ID < merged[j].ID
	})

	if len(merged) > cap {
		merged = merged[:cap]
	}

	return models.Collection{Items: merged, Cap: cap}
}

// RecentOnly keeps items whose sort epoch falls within the trailing
// window of now. Items without a timestamp never qualify.
func RecentOnly(items []models.Item, window time.Duration, now time.Time) []models.Item {
	floor := now.Add(-window).Unix()
	recent := make([]models.Item, 0, len(items))
	for _, item := range items {
		if item.SortEpoch > 0 && item.SortEpoch >= floor {
			recent = append(recent, item)
		}
	}
	return recent
}

// ExcludeSeen drops items whose ID is already in the seen set
func ExcludeSeen(items []models.Item, seen map[string]struct{}) []models.Item {
	if len(seen) == 0 {
		return items
	}
	fresh := make([]models.Item, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		fresh = append(fresh, item)
	}
	return fresh
}
