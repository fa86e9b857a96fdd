package models

import "time"

// MarketSentiment is a fear/greed style gauge with its banded label
type MarketSentiment struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// SentimentLabel maps a 0-100 gauge value onto its band
func SentimentLabel(value int) string {
	switch {
	case value <= 25:
		return "Extreme Fear"
	case value <= 45:
		return "Fear"
	case value <= 54:
		return "Neutral"
	case value <= 74:
		return "Greed"
	default:
		return "Extreme Greed"
	}
}

// Snapshot is the per-portfolio document published after each run. The
// "tradingview_ideas" key carries market commentary; the name is kept for
// compatibility with existing consumers of the document.
type Snapshot struct {
	GeneratedAt     time.Time        `json:"generated_at"`
	PortfolioID     string           `json:"portfolio_id"`
	PortfolioName   string           `json:"portfolio_name"`
	UserID          string           `json:"user_id"`
	MarketSentiment *MarketSentiment `json:"market_sentiment"`
	PortfolioNews   []Item           `json:"portfolio_news"`
	Commentary      []Item           `json:"tradingview_ideas"`
	SocialMentions  []SocialPost     `json:"social_mentions,omitempty"`
	Assets          []Asset          `json:"assets"`
}
