package score

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ppiankov/truthguard/internal/knowledge"
	"github.com/ppiankov/truthguard/internal/metrics"
	"github.com/ppiankov/truthguard/internal/model"
)

const (
	// KnownMatchConfidence is reported when text matches a stored example
	KnownMatchConfidence = 95.0

	heuristicWeight   = 0.7
	credibilityWeight = 0.3
)

// Blender combines heuristic scores with stored knowledge.
// Storage failures degrade to the heuristic result; they never fail a score.
type Blender struct {
	scorer *Scorer
	lookup knowledge.Lookup
	logger *slog.Logger
}

// NewBlender creates a blender. A nil lookup scores heuristically only.
func NewBlender(scorer *Scorer, lookup knowledge.Lookup, logger *slog.Logger) *Blender {
	if scorer == nil {
		scorer = NewDefaultScorer()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Blender{scorer: scorer, lookup: lookup, logger: logger}
}

// Scorer returns the underlying heuristic scorer
func (b *Blender) Scorer() *Scorer {
	return b.scorer
}

// Blend scores text, overriding with an exact knowledge match and otherwise
// mixing in the stored credibility of domain (if non-empty and rated).
func (b *Blender) Blend(ctx context.Context, text, domain string) model.ScoreResult {
	if b.lookup == nil {
		return b.scorer.Score(text)
	}

	match, err := b.lookup.FindExactMatch(ctx, text)
	if err != nil {
		b.logger.Warn("knowledge lookup failed, using heuristic score", "error", err)
		metrics.KnowledgeFallbacks.Inc()
		return b.scorer.Score(text)
	}
	if match != model.MatchNone {
		return knownResult(b.scorer.Profile(), match)
	}

	result := b.scorer.Score(text)
	if domain == "" {
		return result
	}

	cred, found, err := b.lookup.DomainCredibility(ctx, knowledge.NormalizeDomain(domain))
	if err != nil {
		b.logger.Warn("credibility lookup failed, using heuristic score", "domain", domain, "error", err)
		metrics.KnowledgeFallbacks.Inc()
		return result
	}
	if !found {
		return result
	}

	return withDomainCredibility(result, cred)
}

// knownResult reports a stored example's label without running the scorer
func knownResult(profile model.Profile, match model.KnowledgeMatch) model.ScoreResult {
	verdict := model.VerdictFalse
	if match == model.MatchKnownTrue {
		verdict = model.VerdictTrue
	}

	return model.ScoreResult{
		Verdict:    verdict,
		Confidence: KnownMatchConfidence,
		Metrics: model.AnalysisMetrics{
			Profile:       profile,
			DatabaseMatch: match.Label(),
		},
		Signals: []model.Signal{{
			Type:        model.SignalKnowledgeMatch,
			Severity:    model.SeverityInfo,
			Description: fmt.Sprintf("Matches a stored %s example", strings.ToLower(match.Label())),
			Data:        map[string]interface{}{"match": match.Label()},
		}},
	}
}

func withDomainCredibility(result model.ScoreResult, cred float64) model.ScoreResult {
	pct := Round2(cred * 100)
	blended := Round2(Clamp(result.Confidence*heuristicWeight + cred*100*credibilityWeight))

	result.Signals = append(result.Signals, model.Signal{
		Type:        model.SignalDomainCredibility,
		Severity:    model.SeverityFor(blended - result.Confidence),
		Delta:       Round2(blended - result.Confidence),
		Description: fmt.Sprintf("Blended with stored domain credibility of %s%%", strconv.FormatFloat(pct, 'f', -1, 64)),
		Data: map[string]interface{}{
			"credibility": cred,
			"heuristic":   result.Confidence,
		},
	})
	result.Confidence = blended
	result.Verdict = model.VerdictFor(blended)
	result.Metrics.DomainCredibility = strconv.FormatFloat(pct, 'f', -1, 64) + "%"
	return result
}
