package score

import (
	"fmt"
	"math"

	"github.com/ppiankov/truthguard/internal/extract"
	"github.com/ppiankov/truthguard/internal/model"
)

// Baseline confidence of the high-fidelity profile before any adjustment
const Baseline = 65.0

// Scorer turns text into a verdict, a confidence and diagnostic signals.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	profile  model.Profile
	analyzer *extract.Analyzer
	tagger   *extract.SentimentTagger
}

// NewScorer creates a scorer for the given profile and vocabulary
func NewScorer(profile model.Profile, vocab model.Vocabulary) *Scorer {
	if profile == "" {
		profile = model.ProfileHighFidelity
	}
	return &Scorer{
		profile:  profile,
		analyzer: extract.NewAnalyzer(vocab, profile.CredibilityWeight()),
		tagger:   extract.NewSentimentTagger(vocab.PositiveWords, vocab.NegativeWords),
	}
}

// NewDefaultScorer creates a high-fidelity scorer with the built-in vocabulary
func NewDefaultScorer() *Scorer {
	return NewScorer(model.ProfileHighFidelity, model.DefaultVocabulary())
}

// Profile returns the scoring profile in use
func (s *Scorer) Profile() model.Profile {
	return s.profile
}

// Score analyses text and returns the verdict, confidence and metrics
func (s *Scorer) Score(text string) model.ScoreResult {
	lex := s.analyzer.Analyze(text)

	var sc *scorecard
	switch s.profile {
	case model.ProfileRatio:
		sc = scoreRatio(lex)
	default:
		sc = scoreHighFidelity(lex)
	}

	confidence := Round2(Clamp(sc.confidence))

	metrics := model.AnalysisMetrics{
		Profile:              s.profile,
		WordCount:            lex.WordCount,
		CharCount:            lex.CharCount,
		FakeIndicators:       lex.FakeScore,
		TruthIndicators:      lex.TruthHits,
		Sentiment:            s.tagger.Tag(text),
		SourcesCount:         lex.SourcesCount,
		WeaselWords:          lex.WeaselCount,
		FactualPhrases:       lex.FactualCount,
		Quotations:           lex.Quotations,
		ExcessivePunctuation: lex.ExcessivePunctuation,
		CapsRatio:            lex.CapsRatio,
		AllCaps:              fmt.Sprintf("%.1f%%", lex.CapsRatio*100),
	}
	if s.profile == model.ProfileRatio {
		metrics.ContentLength = lex.CharCount
		metrics.ContentLengthUnit = "characters"
	} else {
		metrics.ContentLength = lex.WordCount
		metrics.ContentLengthUnit = "words"
	}

	return model.ScoreResult{
		Verdict:    model.VerdictFor(confidence),
		Confidence: confidence,
		Metrics:    metrics,
		Signals:    sc.signals,
	}
}

// scorecard accumulates confidence adjustments and the signals explaining them
type scorecard struct {
	confidence float64
	signals    []model.Signal
}

func newScorecard(start float64, description string) *scorecard {
	return &scorecard{
		confidence: start,
		signals: []model.Signal{{
			Type:        model.SignalBaseline,
			Severity:    model.SeverityInfo,
			Delta:       start,
			Description: description,
		}},
	}
}

// adjust applies delta and records a signal; zero deltas are not recorded
func (sc *scorecard) adjust(t model.SignalType, delta float64, description string, data map[string]interface{}) {
	if delta == 0 {
		return
	}
	sc.confidence += delta
	sc.signals = append(sc.signals, model.Signal{
		Type:        t,
		Severity:    model.SeverityFor(delta),
		Delta:       delta,
		Description: description,
		Data:        data,
	})
}

func scoreHighFidelity(lex extract.Lexical) *scorecard {
	sc := newScorecard(Baseline, "Baseline confidence")

	// 1. Indicator balance
	total := lex.FakeScore + lex.TruthHits
	if total > 0 {
		pct := float64(lex.TruthHits) / float64(total)
		var delta float64
		switch {
		case pct >= 0.7:
			delta = 20
		case pct >= 0.5:
			delta = 10
		case pct <= 0.3:
			delta = -35
		case pct <= 0.5:
			delta = -20
		}
		sc.adjust(model.SignalIndicatorBalance, delta,
			fmt.Sprintf("Credibility cues are %.0f%% of all cues", pct*100),
			map[string]interface{}{
				"misinformation": lex.FakeScore,
				"credibility":    lex.TruthHits,
				"truth_pct":      pct,
			})
	}

	// 2. Length
	switch {
	case lex.WordCount < 20:
		sc.adjust(model.SignalContentLength, -15, fmt.Sprintf("Very short content (%d words)", lex.WordCount),
			map[string]interface{}{"words": lex.WordCount})
	case lex.WordCount > 100:
		sc.adjust(model.SignalContentLength, 10, fmt.Sprintf("Detailed content (%d words)", lex.WordCount),
			map[string]interface{}{"words": lex.WordCount})
	}

	// 3. Shouting
	if lex.CharCount > 50 {
		switch {
		case lex.CapsRatio > 0.3:
			sc.adjust(model.SignalShouting, -25, fmt.Sprintf("Excessive capitals (%.1f%%)", lex.CapsRatio*100),
				map[string]interface{}{"caps_ratio": lex.CapsRatio})
		case lex.CapsRatio > 0.2:
			sc.adjust(model.SignalShouting, -15, fmt.Sprintf("Elevated capitals (%.1f%%)", lex.CapsRatio*100),
				map[string]interface{}{"caps_ratio": lex.CapsRatio})
		}
	}

	// 4. Punctuation bursts
	switch {
	case lex.ExcessivePunctuation > 3:
		sc.adjust(model.SignalPunctuation, -25, fmt.Sprintf("%d punctuation bursts", lex.ExcessivePunctuation),
			map[string]interface{}{"bursts": lex.ExcessivePunctuation})
	case lex.ExcessivePunctuation > 1:
		sc.adjust(model.SignalPunctuation, -15, fmt.Sprintf("%d punctuation bursts", lex.ExcessivePunctuation),
			map[string]interface{}{"bursts": lex.ExcessivePunctuation})
	}

	// 5. Hedging
	switch {
	case lex.WeaselCount > 4:
		sc.adjust(model.SignalHedging, -20, fmt.Sprintf("Heavy hedging (%d weasel words)", lex.WeaselCount),
			map[string]interface{}{"weasel_words": lex.WeaselCount})
	case lex.WeaselCount > 2:
		sc.adjust(model.SignalHedging, -10, fmt.Sprintf("Some hedging (%d weasel words)", lex.WeaselCount),
			map[string]interface{}{"weasel_words": lex.WeaselCount})
	case lex.WeaselCount == 0 && lex.WordCount > 50:
		sc.adjust(model.SignalHedging, 10, "Direct statements without weasel words",
			map[string]interface{}{"weasel_words": 0, "words": lex.WordCount})
	}

	// 6. Sources
	switch {
	case lex.SourcesCount >= 3:
		sc.adjust(model.SignalSourcing, 20, fmt.Sprintf("%d sources cited", lex.SourcesCount),
			map[string]interface{}{"sources": lex.SourcesCount})
	case lex.SourcesCount >= 1:
		sc.adjust(model.SignalSourcing, 15, fmt.Sprintf("%d source(s) cited", lex.SourcesCount),
			map[string]interface{}{"sources": lex.SourcesCount})
	}

	// 7. Factual language
	switch {
	case lex.FactualCount >= 2:
		sc.adjust(model.SignalFactualLanguage, 15, fmt.Sprintf("%d factual reporting phrases", lex.FactualCount),
			map[string]interface{}{"factual_phrases": lex.FactualCount})
	case lex.FactualCount >= 1:
		sc.adjust(model.SignalFactualLanguage, 10, "Factual reporting phrase",
			map[string]interface{}{"factual_phrases": lex.FactualCount})
	}

	// 8. Quotations
	switch {
	case lex.Quotations >= 2:
		sc.adjust(model.SignalQuotations, 10, fmt.Sprintf("%d quotations", lex.Quotations),
			map[string]interface{}{"quotations": lex.Quotations})
	case lex.Quotations >= 1:
		sc.adjust(model.SignalQuotations, 5, "Quotation present",
			map[string]interface{}{"quotations": lex.Quotations})
	}

	return sc
}

func scoreRatio(lex extract.Lexical) *scorecard {
	var sc *scorecard

	total := lex.FakeScore + lex.TruthScore
	if total > 0 {
		sc = newScorecard(float64(lex.TruthScore)/float64(total)*100, "Weighted credibility share of all cues")
	} else {
		switch {
		case lex.CharCount < 100 && lex.SourcesCount == 0:
			sc = newScorecard(45, "No cues: short unsourced content")
		case lex.SourcesCount > 0:
			sc = newScorecard(70, "No cues: sourced content")
		case lex.CharCount > 300:
			sc = newScorecard(60, "No cues: long content")
		default:
			sc = newScorecard(55, "No cues: default")
		}
	}

	if lex.CapsRatio > 0.3 && lex.CharCount > 50 {
		sc.adjust(model.SignalShouting, -20, fmt.Sprintf("Excessive capitals (%.1f%%)", lex.CapsRatio*100),
			map[string]interface{}{"caps_ratio": lex.CapsRatio})
	}

	if lex.ExcessivePunctuation > 2 {
		sc.adjust(model.SignalPunctuation, -15, fmt.Sprintf("%d punctuation bursts", lex.ExcessivePunctuation),
			map[string]interface{}{"bursts": lex.ExcessivePunctuation})
	}

	switch {
	case lex.WeaselCount > 3:
		sc.adjust(model.SignalHedging, -15, fmt.Sprintf("Heavy hedging (%d weasel words)", lex.WeaselCount),
			map[string]interface{}{"weasel_words": lex.WeaselCount})
	case lex.WeaselCount <= 1 && lex.CharCount > 150:
		sc.adjust(model.SignalHedging, 10, "Direct statements",
			map[string]interface{}{"weasel_words": lex.WeaselCount})
	}

	if lex.SourcesCount >= 1 {
		sc.adjust(model.SignalSourcing, 10, fmt.Sprintf("%d source(s) cited", lex.SourcesCount),
			map[string]interface{}{"sources": lex.SourcesCount})
	}

	return sc
}

// Round2 rounds to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Clamp bounds a confidence to [0, 100]
func Clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
