package models

import "time"

// SocialPost is a community discussion entry with engagement metadata.
// Ranking weighs engagement against age; the Item fields carry the
// displayable content.
type SocialPost struct {
	Item
	Channel          string  `json:"channel,omitempty"`
	EngagementScore  float64 `json:"engagement_score"`
	CommentCount     int     `json:"comment_count"`
	PortfolioMention bool    `json:"portfolio_mention"`

	// Signal is the computed ranking value, recomputed on every run
	// and never written to a payload
	Signal float64 `json:"-"`
}

// PostedAt returns the publish time, or the zero time when unknown
func (p SocialPost) PostedAt() time.Time {
	if p.PublishedAt == nil {
		return time.Time{}
	}
	return *p.PublishedAt
}
