package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/truthguard/internal/model"
)

// SentimentTagger labels text by counting positive and negative words
type SentimentTagger struct {
	positive []*regexp.Regexp
	negative []*regexp.Regexp
}

// NewSentimentTagger compiles the positive and negative word lists
func NewSentimentTagger(positive, negative []string) *SentimentTagger {
	return &SentimentTagger{
		positive: compileBoundaryPatterns(positive),
		negative: compileBoundaryPatterns(negative),
	}
}

// Tag returns Positive, Negative or Neutral (ties are Neutral)
func (s *SentimentTagger) Tag(text string) model.Sentiment {
	lower := strings.ToLower(text)
	pos := countAll(s.positive, lower)
	neg := countAll(s.negative, lower)

	switch {
	case pos > neg:
		return model.SentimentPositive
	case neg > pos:
		return model.SentimentNegative
	default:
		return model.SentimentNeutral
	}
}
