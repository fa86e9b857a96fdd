// -----------------------------------------------------------------------
// Quality filter - Rejects low-value analyst commentary before it can
// enter a collection. Pure and deterministic; all thresholds tunable.
// -----------------------------------------------------------------------

package feeds

import (
	"regexp"
	"strings"
)

// Upstream aggregators truncate paywalled posts down to this marker
const mediumPlaceholder = "continue reading on medium »"

// Titles matching any of these are junk regardless of length: bare
// ticker lists, bare dates, trade-journal "day N" posts, cashtag spam.
var lowQualityTitlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\$?[A-Z]{1,5}([\s,/&-]+\$?[A-Z]{1,5})*$`),
	regexp.MustCompile(`^\d{1,2}[-/.]\d{1,2}([-/.]\d{2,4})?$`),
	regexp.MustCompile(`(?i)^day\s+\d+\b`),
	regexp.MustCompile(`^\$[A-Za-z]{1,5}\b`),
}

// Summaries that are nothing but "sym 123 sym 456" token runs
var tickerTuplePattern = regexp.MustCompile(`(?i)^([a-z]{2,5}\s+\d+(\.\d+)?\s*)+$`)

var defaultSpamKeywords = []string{
	"sign up now",
	"subscribe to",
	"free trial",
	"promo code",
	"giveaway",
	"airdrop",
	"click here",
	"limited time offer",
	"sponsored",
	"join our",
	"referral",
}

var defaultQualityIndicators = []string{
	"analysis",
	"outlook",
	"earnings",
	"forecast",
	"strategy",
	"valuation",
	"guidance",
	"revenue",
	"margin",
	"quarter",
	"report",
	"technical",
	"fundamental",
}

// QualityParams holds the filter thresholds and keyword sets. Extra
// keywords from config extend the built-in lists.
type QualityParams struct {
	MinTitleLen        int
	MinSummaryLen      int
	ShortSummaryLen    int
	MaxNonASCIIRatio   float64
	ExtraSpamKeywords  []string
	ExtraQualityWords  []string
}

// DefaultQualityParams returns the standard thresholds
func DefaultQualityParams() QualityParams {
	return QualityParams{
		MinTitleLen:      20,
		MinSummaryLen:    50,
		ShortSummaryLen:  100,
		MaxNonASCIIRatio: 0.30,
	}
}

// QualityFilter decides whether a commentary article is worth surfacing
type QualityFilter struct {
	params            QualityParams
	spamKeywords      []string
	qualityIndicators []string
}

// NewQualityFilter builds a filter with the built-in keyword sets
// extended by the params' extra lists.
func NewQualityFilter(params QualityParams) *QualityFilter {
	spam := lowered(defaultSpamKeywords, params.ExtraSpamKeywords)
	indicators := lowered(defaultQualityIndicators, params.ExtraQualityWords)

	return &QualityFilter{
		params:            params,
		spamKeywords:      spam,
		qualityIndicators: indicators,
	}
}

// IsQualityArticle reports whether a title/summary pair passes every
// quality rule. The checks run cheapest first.
func (f *QualityFilter) IsQualityArticle(title, summary string) bool {
	title = strings.TrimSpace(title)
	summary = strings.TrimSpace(summary)

	if len(title) < f.params.MinTitleLen {
		return false
	}

	for _, pattern := range lowQualityTitlePatterns {
		if pattern.MatchString(title) {
			return false
		}
	}

	combined := strings.ToLower(title + " " + summary)
	for _, keyword := range f.spamKeywords {
		if strings.Contains(combined, keyword) {
			return false
		}
	}

	lowerSummary := strings.ToLower(summary)
	if lowerSummary == mediumPlaceholder {
		return false
	}
	// Truncated paywalled posts keep a sentence fragment ahead of the marker
	if strings.HasSuffix(lowerSummary, mediumPlaceholder) && len(summary) < 80 {
		return false
	}

	if len(summary) < f.params.MinSummaryLen {
		return false
	}

	if tickerTuplePattern.MatchString(summary) {
		return false
	}

	if nonASCIIRatio(title) > f.params.MaxNonASCIIRatio {
		return false
	}

	if len(summary) < f.params.ShortSummaryLen && !f.hasQualityIndicator(combined) {
		return false
	}

	return true
}

func lowered(lists ...[]string) []string {
	out := make([]string, 0)
	for _, list := range lists {
		for _, kw := range list {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				out = append(out, kw)
			}
		}
	}
	return out
}

func (f *QualityFilter) hasQualityIndicator(text string) bool {
	for _, keyword := range f.qualityIndicators {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// nonASCIIRatio returns the fraction of characters outside printable ASCII
func nonASCIIRatio(s string) float64 {
	if s == "" {
		return 0
	}
	total := 0
	outside := 0
	for _, r := range s {
		total++
		if r < 0x20 || r > 0x7e {
			outside++
		}
	}
	return float64(outside) / float64(total)
}
