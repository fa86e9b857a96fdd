// -----------------------------------------------------------------------
// Social scoring - Ranks community posts by engagement decayed over age
// -----------------------------------------------------------------------

package feeds

import (
	"sort"
	"time"

	"github.com/ternarybob/folio/internal/models"
)

// SocialScoreParams tunes the social ranking. All values come from config.
type SocialScoreParams struct {
	// HalfLife is the freshness parameter H in the decay 1/(1+age/H)
	HalfLife time.Duration
	// MaxAge is the hard cutoff; older posts are rejected before scoring
	MaxAge time.Duration
	// MinEngagement rejects low-signal posts independent of age
	MinEngagement float64
	// FreshnessBoost applies when age <= HalfLife
	FreshnessBoost float64
	// MentionBoost applies when the post mentions a portfolio holding
	MentionBoost float64
	// MaxPosts is the cap on the ranked result
	MaxPosts int
}

// DefaultSocialScoreParams returns the standard tuning
func DefaultSocialScoreParams() SocialScoreParams {
	return SocialScoreParams{
		HalfLife:       36 * time.Hour,
		MaxAge:         96 * time.Hour,
		MinEngagement:  5,
		FreshnessBoost: 1.3,
		MentionBoost:   1.4,
		MaxPosts:       3,
	}
}

// SignalScore computes a post's ranking value:
//
//	signal = engagement * 1/(1+age/H) * freshness * mention
//
// Posts beyond MaxAge or below MinEngagement score zero.
func SignalScore(post models.SocialPost, now time.Time, params SocialScoreParams) float64 {
	age := post.Age(now)
	if age > params.MaxAge {
		return 0
	}
	if post.EngagementScore < params.MinEngagement {
		return 0
	}

	decay := 1.0 / (1.0 + age.Hours()/params.HalfLife.Hours())
	signal := post.EngagementScore * decay
	if age <= params.HalfLife {
		signal *= params.FreshnessBoost
	}
	if post.PortfolioMention {
		signal *= params.MentionBoost
	}
	return signal
}

// RankSocialPosts scores, filters and orders posts. Ranking key is
// (-signal, -epoch, id): highest signal first, ties by recency, final
// tie by ID for determinism. Zero-signal posts are dropped. The result
// is truncated to MaxPosts and input is not mutated.
func RankSocialPosts(posts []models.SocialPost, now time.Time, params SocialScoreParams) []models.SocialPost {
	ranked := make([]models.SocialPost, 0, len(posts))
	for _, post := range posts {
		signal := SignalScore(post, now, params)
		if signal <= 0 {
			continue
		}
		post.Signal = signal
		ranked = append(ranked, post)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Signal != ranked[j].Signal {
			return ranked[i].Signal > ranked[j].Signal
		}
		if ranked[i].SortEpoch != ranked[j].SortEpoch {
			return ranked[i].SortEpoch > ranked[j].SortEpoch
		}
		return ranked[i].ID < ranked[j].ID
	})

	if params.MaxPosts > 0 && len(ranked) > params.MaxPosts {
		ranked = ranked[:params.MaxPosts]
	}
	return ranked
}
