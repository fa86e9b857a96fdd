// -----------------------------------------------------------------------
// Item - Normalized feed entry shared by every collector
// Upstream sources deliver loosely shaped records; everything is mapped
// onto this fixed schema before it enters a merge.
// -----------------------------------------------------------------------

package models

import (
	"strconv"
	"time"
)

// Item represents a single content entry (news article, post or commentary).
// Two items with the same ID are the same logical entry; the newer fetch wins
// on merge. SortEpoch is derived from PublishedAt and used purely for
// ranking - items without a parseable timestamp carry epoch 0 and sort last.
type Item struct {
	ID          string     `json:"id"`
	Title       string     `json:"title,omitempty"`
	Subtitle    string     `json:"subtitle,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	Link        string     `json:"link,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	Publisher   string     `json:"publisher,omitempty"`
	Author      string     `json:"author,omitempty"`
	Ticker      string     `json:"ticker,omitempty"`
	Category    string     `json:"category,omitempty"`
	Source      string     `json:"source,omitempty"`
	Type        string     `json:"type,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`

	// SortEpoch is internal ranking state, never persisted
	SortEpoch int64 `json:"-"`
}

// SetPublishedAt stores the publish time and derives the sort epoch
func (i *Item) SetPublishedAt(t time.Time) {
	utc := t.UTC()
	i.PublishedAt = &utc
	i.SortEpoch = utc.Unix()
}

// Age returns the item age relative to now; items without a timestamp
// report an arbitrarily large age.
func (i *Item) Age(now time.Time) time.Duration {
	if i.PublishedAt == nil {
		return time.Duration(1<<62 - 1)
	}
	age := now.Sub(*i.PublishedAt)
	if age < 0 {
		return 0
	}
	return age
}

// RehydrateEpochs recomputes sort epochs after a collection round-trips
// through JSON (SortEpoch is not serialized).
func RehydrateEpochs(items []Item) {
	for idx := range items {
		if items[idx].PublishedAt != nil {
			items[idx].SortEpoch = items[idx].PublishedAt.UTC().Unix()
		} else {
			items[idx].SortEpoch = 0
		}
	}
}

// Collection is a bounded ranked sequence of items, ordered descending by
// sort epoch. Invariants: no duplicate IDs, len <= Cap after every merge.
type Collection struct {
	Items []Item `json:"items"`
	Cap   int    `json:"cap"`
}

// NewCollection creates an empty collection with the given cap
func NewCollection(cap int) Collection {
	return Collection{Items: []Item{}, Cap: cap}
}

// IDs returns the set of identifiers present in the collection
func (c Collection) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(c.Items))
	for _, item := range c.Items {
		ids[item.ID] = struct{}{}
	}
	return ids
}

// NormalizeRaw maps a heterogeneous upstream record onto the fixed Item
// schema. Sources disagree on key names and nesting (top-level vs "content"
// sub-object, link as string or object, several publish-time variants), so
// every fallback here mirrors a shape observed in the wild. Returns false
// when no identifier can be derived - such records are dropped upstream,
// not treated as errors.
func NormalizeRaw(raw map[string]interface{}) (Item, bool) {
	content, _ := raw["content"].(map[string]interface{})

	id := stringField(raw, "uuid", "id")
	if id == "" && content != nil {
		id = stringField(content, "uuid", "id")
	}
	if id == "" {
		return Item{}, false
	}

	item := Item{
		ID:        id,
		Title:     coalesce(stringField(raw, "title"), stringField(content, "title")),
		Publisher: coalesce(stringField(raw, "publisher", "source"), stringField(content, "publisher")),
		Type:      coalesce(stringField(raw, "type"), stringField(content, "contentType", "type")),
	}

	item.Link = resolveLink(raw, content)
	item.ImageURL = resolveThumbnail(raw, content)

	if epoch, ok := resolvePublishEpoch(raw, content); ok {
		item.SetPublishedAt(time.Unix(epoch, 0))
	}

	return item, true
}

// resolveLink finds the article URL across the known key variants
func resolveLink(raw, content map[string]interface{}) string {
	link := raw["link"]
	if link == nil && content != nil {
		link = content["link"]
	}
	switch v := link.(type) {
	case string:
		if v != "" {
			return v
		}
	case map[string]interface{}:
		if url := stringField(v, "url"); url != "" {
			return url
		}
	}

	if url := stringField(raw, "url"); url != "" {
		return url
	}
	return coalesce(stringField(content, "url"), stringField(content, "clickThroughUrl"))
}

// resolveThumbnail picks a thumbnail URL, preferring the direct url and
// falling back to the widest listed resolution.
func resolveThumbnail(raw, content map[string]interface{}) string {
	payload, _ := raw["thumbnail"].(map[string]interface{})
	if payload == nil && content != nil {
		payload, _ = content["thumbnail"].(map[string]interface{})
	}
	if payload == nil {
		return ""
	}

	if url := stringField(payload, "url"); url != "" {
		return url
	}

	resolutions, _ := payload["resolutions"].([]interface{})
	bestWidth := -1
	bestURL := ""
	for _, entry := range resolutions {
		res, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		width := intField(res, "width")
		if url := stringField(res, "url"); url != "" && width > bestWidth {
			bestWidth = width
			bestURL = url
		}
	}
	return bestURL
}

// resolvePublishEpoch extracts the publish time as unix seconds. Values may
// be int, float or string representations of either.
func resolvePublishEpoch(raw, content map[string]interface{}) (int64, bool) {
	keys := []string{"providerPublishTime", "published_at", "pubDate"}
	for _, source := range []map[string]interface{}{raw, content} {
		if source == nil {
			continue
		}
		for _, key := range keys {
			if epoch, ok := toEpoch(source[key]); ok {
				return epoch, true
			}
		}
	}
	return 0, false
}

func toEpoch(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, t > 0
	case int:
		return int64(t), t > 0
	case float64:
		return int64(t), t > 0
	case string:
		if t == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return int64(f), f > 0
		}
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed.Unix(), true
		}
	}
	return 0, false
}

func stringField(m map[string]interface{}, keys ...string) string {
	if m == nil {
		return ""
	}
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func intField(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
