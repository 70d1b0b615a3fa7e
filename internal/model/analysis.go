package model

import (
	"fmt"
	"strings"
)

// Verdict is the binary truthfulness label attached to every score
type Verdict string

const (
	VerdictTrue  Verdict = "True"
	VerdictFalse Verdict = "False"
)

// VerdictThreshold is the confidence at or above which content is labelled True
const VerdictThreshold = 50.0

// VerdictFor derives the verdict from a confidence value
func VerdictFor(confidence float64) Verdict {
	if confidence >= VerdictThreshold {
		return VerdictTrue
	}
	return VerdictFalse
}

// Sentiment is the coarse emotional tone of a text
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

// Profile selects the scoring rules applied by the scorer
type Profile string

const (
	// ProfileHighFidelity is the canonical baseline-and-adjust profile
	ProfileHighFidelity Profile = "high-fidelity"
	// ProfileRatio derives confidence from the cue ratio with length defaults
	ProfileRatio Profile = "ratio"
)

// ParseProfile validates a profile name from configuration
func ParseProfile(name string) (Profile, error) {
	switch Profile(strings.ToLower(strings.TrimSpace(name))) {
	case "", ProfileHighFidelity:
		return ProfileHighFidelity, nil
	case ProfileRatio:
		return ProfileRatio, nil
	default:
		return "", fmt.Errorf("unknown scoring profile: %s (supported: high-fidelity, ratio)", name)
	}
}

// CredibilityWeight is the multiplier applied to credibility cue hits
func (p Profile) CredibilityWeight() int {
	if p == ProfileRatio {
		return 2
	}
	return 3
}

// KnowledgeMatch is the outcome of an exact-match lookup against stored examples
type KnowledgeMatch int

const (
	MatchNone KnowledgeMatch = iota
	MatchKnownTrue
	MatchKnownFalse
)

// Label returns the human-readable form reported in metrics
func (m KnowledgeMatch) Label() string {
	switch m {
	case MatchKnownTrue:
		return "Known true"
	case MatchKnownFalse:
		return "Known false"
	default:
		return ""
	}
}

// AnalysisMetrics is the observable breakdown behind a score
type AnalysisMetrics struct {
	Profile              Profile   `json:"profile,omitempty"`
	ContentLength        int       `json:"contentLength"`
	ContentLengthUnit    string    `json:"contentLengthUnit,omitempty"`
	WordCount            int       `json:"wordCount"`
	CharCount            int       `json:"charCount"`
	FakeIndicators       int       `json:"fakeIndicators"`
	TruthIndicators      int       `json:"truthIndicators"`
	Sentiment            Sentiment `json:"sentiment,omitempty"`
	SourcesCount         int       `json:"sourcesCount"`
	WeaselWords          int       `json:"weaselWords"`
	FactualPhrases       int       `json:"factualPhrases"`
	Quotations           int       `json:"quotations"`
	ExcessivePunctuation int       `json:"excessivePunctuation"`
	CapsRatio            float64   `json:"capsRatio"`
	AllCaps              string    `json:"allCaps,omitempty"`

	DomainCredibility string `json:"domainCredibility,omitempty"` // e.g. "93%"
	DatabaseMatch     string `json:"databaseMatch,omitempty"`     // "Known true" / "Known false"
}

// ScoreResult is the verdict, confidence and explanation for one text
type ScoreResult struct {
	Verdict    Verdict         `json:"verdict"`
	Confidence float64         `json:"confidence"`
	Metrics    AnalysisMetrics `json:"metrics"`
	Signals    []Signal        `json:"signals,omitempty"`
}

// IsTrue reports whether the verdict is True
func (r ScoreResult) IsTrue() bool {
	return r.Verdict == VerdictTrue
}
