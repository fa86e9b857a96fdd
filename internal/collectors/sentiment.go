// -----------------------------------------------------------------------
// Sentiment collector - Market fear/greed gauge
// -----------------------------------------------------------------------

package collectors

import (
	"context"
	"fmt"
	"math"

	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/models"
)

// DefaultSentimentURL is the default gauge data endpoint
const DefaultSentimentURL = "https://production.dataviz.cnn.io/index/fearandgreed/graphdata"

// SentimentClient fetches the market-wide fear/greed gauge
type SentimentClient struct {
	*restClient
}

var _ interfaces.SentimentCollector = (*SentimentClient)(nil)

// NewSentimentClient creates a sentiment collector client
func NewSentimentClient(opts ...Option) *SentimentClient {
	return &SentimentClient{restClient: newRestClient(DefaultSentimentURL, opts...)}
}

type sentimentResponse struct {
	FearAndGreed struct {
		Score  float64 `json:"score"`
		Rating string  `json:"rating"`
	} `json:"fear_and_greed"`
}

// Fetch returns the current gauge reading. The label is banded locally
// from the numeric value rather than trusting the upstream rating, so
// payloads stay consistent across source changes.
func (c *SentimentClient) Fetch(ctx context.Context) (*models.MarketSentiment, error) {
	var response sentimentResponse
	if err := c.getJSON(ctx, "", nil, &response); err != nil {
		return nil, err
	}

	value := int(math.Round(response.FearAndGreed.Score))
	if value < 0 || value > 100 {
		return nil, fmt.Errorf("sentiment value %d out of range", value)
	}

	return &models.MarketSentiment{
		Value: value,
		Label: models.SentimentLabel(value),
	}, nil
}
