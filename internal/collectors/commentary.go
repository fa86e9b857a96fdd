// -----------------------------------------------------------------------
// Commentary collector - Paged RSS source of long-form analyst posts.
// Entries are quality-filtered and their HTML bodies converted to
// markdown before they reach a payload.
// -----------------------------------------------------------------------

package collectors

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/feeds"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/models"
)

// DefaultCommentaryBaseURL is the default commentary feed root
const DefaultCommentaryBaseURL = "https://medium.com/feed/tag"

// CommentaryClient walks a paginated RSS source per topic symbol
type CommentaryClient struct {
	*restClient
	filter     *feeds.QualityFilter
	pageParams feeds.PageParams
	converter  *md.Converter
}

var (
	_ interfaces.CommentaryCollector = (*CommentaryClient)(nil)
	_ feeds.PageFetcher              = (*CommentaryClient)(nil)
)

// NewCommentaryClient creates a commentary collector client
func NewCommentaryClient(filter *feeds.QualityFilter, pageParams feeds.PageParams, opts ...Option) *CommentaryClient {
	return &CommentaryClient{
		restClient: newRestClient(DefaultCommentaryBaseURL, opts...),
		filter:     filter,
		pageParams: pageParams,
		converter:  md.NewConverter("", true, nil),
	}
}

// Fetch gathers up to maxItems quality commentary entries across the
// portfolio's symbols, falling back to reference symbols when the
// per-symbol pass comes up short.
func (c *CommentaryClient) Fetch(ctx context.Context, symbols []string, maxItems int) ([]models.Item, error) {
	topics := make([]string, 0, len(symbols))
	for _, symbol := range common.UniqueSymbols(symbols) {
		topics = append(topics, common.BaseSymbol(symbol))
	}

	params := c.pageParams
	if maxItems > 0 {
		params.MaxItems = maxItems
	}

	items := feeds.CollectPaged(ctx, c, topics, time.Now(), params)

	if c.logger != nil {
		c.logger.Debug().
			Int("topics", len(topics)).
			Int("items", len(items)).
			Msg("Commentary collection complete")
	}
	return items, nil
}

// FetchPage retrieves one RSS page for a topic, keeping only entries
// that pass the quality filter.
func (c *CommentaryClient) FetchPage(ctx context.Context, topic string, page int) ([]models.Item, error) {
	params := url.Values{}
	if page > 1 {
		params.Set("page", strconv.Itoa(page))
	}

	body, err := c.getBytes(ctx, "/"+strings.ToLower(topic), params)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		item, ok := c.normalizeEntry(entry, topic)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (c *CommentaryClient) normalizeEntry(entry *gofeed.Item, topic string) (models.Item, bool) {
	id := entry.GUID
	if id == "" {
		id = entry.Link
	}
	if id == "" {
		return models.Item{}, false
	}

	title := strings.TrimSpace(entry.Title)
	body := firstNonEmpty(entry.Description, entry.Content)
	plain := htmlToText(body)

	if !c.filter.IsQualityArticle(title, plain) {
		return models.Item{}, false
	}

	item := models.Item{
		ID:      id,
		Title:   title,
		Summary: c.toMarkdown(body, plain),
		Link:    entry.Link,
		Author:  entryAuthor(entry),
		Ticker:  common.NormalizeSymbol(topic),
		Source:  "commentary",
		Type:    "article",
	}

	if entry.PublishedParsed != nil {
		item.SetPublishedAt(*entry.PublishedParsed)
	}
	return item, true
}

// entryAuthor returns the first feed author name; dc:creator entries land
// here too.
func entryAuthor(entry *gofeed.Item) string {
	for _, author := range entry.Authors {
		if author != nil && strings.TrimSpace(author.Name) != "" {
			return strings.TrimSpace(author.Name)
		}
	}
	return ""
}

// toMarkdown converts the entry's HTML body to markdown, falling back
// to the plain text when conversion fails.
func (c *CommentaryClient) toMarkdown(html, plain string) string {
	markdown, err := c.converter.ConvertString(html)
	if err != nil {
		return plain
	}
	return strings.TrimSpace(markdown)
}

// htmlToText strips tags from an HTML fragment for filtering
func htmlToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	return strings.TrimSpace(strings.Join(strings.Fields(doc.Text()), " "))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
