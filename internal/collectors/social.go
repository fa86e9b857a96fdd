// -----------------------------------------------------------------------
// Social collector - Community discussion listings. Polls each
// configured channel's hot listing plus a keyword search, tags posts
// that mention a portfolio holding, and dedupes by ID.
// -----------------------------------------------------------------------

package collectors

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/models"
)

// DefaultSocialBaseURL is the default discussion listing endpoint
const DefaultSocialBaseURL = "https://www.reddit.com"

// DefaultSocialChannels are the channels polled when none are configured
var DefaultSocialChannels = []string{"investing", "wallstreetbets", "stocks", "options", "trading", "CryptoCurrency"}

// SocialClient fetches community posts from channel listings
type SocialClient struct {
	*restClient
	channels []string
}

var _ interfaces.SocialCollector = (*SocialClient)(nil)

// NewSocialClient creates a social collector client. An empty channel
// list falls back to the default set.
func NewSocialClient(channels []string, opts ...Option) *SocialClient {
	if len(channels) == 0 {
		channels = DefaultSocialChannels
	}
	return &SocialClient{
		restClient: newRestClient(DefaultSocialBaseURL, opts...),
		channels:   channels,
	}
}

type listingResponse struct {
	Data struct {
		Children []struct {
			Data listingPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type listingPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Subreddit   string  `json:"subreddit"`
	Author      string  `json:"author"`
	Permalink   string  `json:"permalink"`
	Score       float64 `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
}

// Fetch returns posts from every channel's hot listing plus a keyword
// search per channel, deduplicated by ID. Posts whose title or body
// mention one of the keywords are tagged as portfolio mentions. A
// failed channel is skipped; an error is returned only when every
// listing fails.
func (c *SocialClient) Fetch(ctx context.Context, keywords []string, limit int) ([]models.SocialPost, error) {
	if limit <= 0 {
		limit = 25
	}
	keywords = common.UniqueSymbols(keywords)

	seen := make(map[string]struct{})
	posts := make([]models.SocialPost, 0, limit*len(c.channels))
	failures := 0
	attempts := 0
	var lastErr error

	for _, channel := range c.channels {
		for _, path := range c.listingPaths(channel, keywords, limit) {
			attempts++
			listing, err := c.fetchListing(ctx, path)
			if err != nil {
				failures++
				lastErr = err
				if c.logger != nil {
					c.logger.Warn().
						Str("channel", channel).
						Err(err).
						Msg("Social listing fetch failed")
				}
				continue
			}
			for _, post := range listing {
				if _, ok := seen[post.ID]; ok {
					continue
				}
				seen[post.ID] = struct{}{}
				posts = append(posts, toSocialPost(post, keywords))
			}
		}
	}

	if attempts > 0 && failures == attempts && lastErr != nil {
		return nil, lastErr
	}
	return posts, nil
}

// listingPaths builds the hot listing plus one keyword search per channel
func (c *SocialClient) listingPaths(channel string, keywords []string, limit int) []string {
	paths := []string{
		fmt.Sprintf("/r/%s/hot.json?%s", channel, url.Values{"limit": {strconv.Itoa(limit)}}.Encode()),
	}
	if len(keywords) > 0 {
		query := url.Values{
			"q":           {strings.Join(keywords, " OR ")},
			"restrict_sr": {"1"},
			"sort":        {"new"},
			"limit":       {strconv.Itoa(limit)},
		}
		paths = append(paths, fmt.Sprintf("/r/%s/search.json?%s", channel, query.Encode()))
	}
	return paths
}

func (c *SocialClient) fetchListing(ctx context.Context, path string) ([]listingPost, error) {
	var response listingResponse
	if err := c.getJSON(ctx, path, nil, &response); err != nil {
		return nil, err
	}

	posts := make([]listingPost, 0, len(response.Data.Children))
	for _, child := range response.Data.Children {
		if child.Data.ID == "" {
			continue
		}
		posts = append(posts, child.Data)
	}
	return posts, nil
}

func toSocialPost(post listingPost, keywords []string) models.SocialPost {
	sp := models.SocialPost{
		Item: models.Item{
			ID:        post.ID,
			Title:     post.Title,
			Summary:   post.SelfText,
			Link:      DefaultSocialBaseURL + post.Permalink,
			Author:    post.Author,
			Publisher: post.Subreddit,
			Source:    "social",
			Type:      "post",
		},
		Channel:          post.Subreddit,
		EngagementScore:  post.Score,
		CommentCount:     post.NumComments,
		PortfolioMention: mentionsAny(post.Title+" "+post.SelfText, keywords),
	}
	if post.CreatedUTC > 0 {
		sp.SetPublishedAt(time.Unix(int64(post.CreatedUTC), 0))
	}
	return sp
}

// mentionsAny reports whether the text contains any keyword as a word
// or cashtag, case-insensitively.
func mentionsAny(text string, keywords []string) bool {
	upper := strings.ToUpper(text)
	fields := strings.FieldsFunc(upper, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '$' || r == '-')
	})
	for _, field := range fields {
		token := strings.TrimPrefix(field, "$")
		for _, keyword := range keywords {
			if token == keyword || token == common.BaseSymbol(keyword) {
				return true
			}
		}
	}
	return false
}
