package score

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ppiankov/truthguard/internal/model"
)

const citedPassage = `A peer-reviewed analysis published in the Journal of Sports Medicine examined ` +
	`how regular walking affects heart health in adults. According to the study, participants who ` +
	`walked thirty minutes a day had lower blood pressure after twelve weeks (Smith, 2021). The ` +
	`research team at the university recruited four hundred volunteers from three cities and ` +
	`measured their resting heart rate every week. Researchers found that the effect was strongest ` +
	`among people who had been inactive before the trial began. A second group of scientists ` +
	`repeated the experiment with a larger sample and reported similar results (Jones, 2022). The ` +
	`authors stated that the data were collected with standard clinical equipment and checked by an ` +
	`independent statistics office. Both teams published their methods and raw measurements so ` +
	`that other groups can repeat the work. The findings were presented at an annual medical ` +
	`conference in the spring, where doctors discussed how the results fit with earlier surveys of ` +
	`physical activity and long term health outcomes in the general population.`

func findSignal(signals []model.Signal, t model.SignalType) (model.Signal, bool) {
	for _, s := range signals {
		if s.Type == t {
			return s, true
		}
	}
	return model.Signal{}, false
}

func TestScorer_SensationalTextIsFalse(t *testing.T) {
	scorer := NewDefaultScorer()

	result := scorer.Score("BREAKING!!! Secret cure they don't want you to know!!!")

	if result.Confidence != 0 {
		t.Errorf("Expected confidence 0, got %.2f", result.Confidence)
	}
	if result.Verdict != model.VerdictFalse {
		t.Errorf("Expected verdict False, got %s", result.Verdict)
	}
	if result.Metrics.FakeIndicators != 3 {
		t.Errorf("Expected 3 misinformation cues, got %d", result.Metrics.FakeIndicators)
	}
	if result.Metrics.ExcessivePunctuation != 2 {
		t.Errorf("Expected 2 punctuation bursts, got %d", result.Metrics.ExcessivePunctuation)
	}

	for _, st := range []model.SignalType{
		model.SignalBaseline,
		model.SignalIndicatorBalance,
		model.SignalContentLength,
		model.SignalPunctuation,
	} {
		if _, ok := findSignal(result.Signals, st); !ok {
			t.Errorf("Expected %s signal", st)
		}
	}

	balance, _ := findSignal(result.Signals, model.SignalIndicatorBalance)
	if balance.Delta != -35 || balance.Severity != model.SeverityCritical {
		t.Errorf("Expected critical -35 indicator balance, got %+v", balance)
	}
}

func TestScorer_CitedPassageIsTrue(t *testing.T) {
	scorer := NewDefaultScorer()

	result := scorer.Score(citedPassage)

	if result.Metrics.WordCount <= 150 {
		t.Fatalf("Test passage should exceed 150 words, got %d", result.Metrics.WordCount)
	}
	if result.Metrics.WeaselWords != 0 {
		t.Fatalf("Test passage should have no weasel words, got %d", result.Metrics.WeaselWords)
	}
	if result.Confidence != 100 {
		t.Errorf("Expected confidence 100, got %.2f", result.Confidence)
	}
	if !result.IsTrue() {
		t.Errorf("Expected verdict True, got %s", result.Verdict)
	}
	if result.Metrics.SourcesCount < 3 {
		t.Errorf("Expected at least 3 sources (two citations and an attribution), got %d", result.Metrics.SourcesCount)
	}
	if result.Metrics.ContentLengthUnit != "words" {
		t.Errorf("Expected content length in words, got %q", result.Metrics.ContentLengthUnit)
	}
}

func TestScorer_ShortNeutralText(t *testing.T) {
	scorer := NewDefaultScorer()

	// Only the short-content penalty applies
	result := scorer.Score("Hello world")
	if result.Confidence != 50 {
		t.Errorf("Expected confidence 50, got %.2f", result.Confidence)
	}
	if result.Verdict != model.VerdictTrue {
		t.Errorf("Expected verdict True at the threshold, got %s", result.Verdict)
	}
}

func TestScorer_EmptyText(t *testing.T) {
	for _, profile := range []model.Profile{model.ProfileHighFidelity, model.ProfileRatio} {
		t.Run(string(profile), func(t *testing.T) {
			scorer := NewScorer(profile, model.DefaultVocabulary())
			result := scorer.Score("")
			if result.Metrics.CapsRatio != 0 {
				t.Errorf("Expected caps ratio 0, got %v", result.Metrics.CapsRatio)
			}
			if result.Confidence < 0 || result.Confidence > 100 {
				t.Errorf("Confidence out of range: %v", result.Confidence)
			}
		})
	}
}

func TestScorer_BoundsAndVerdictConsistency(t *testing.T) {
	inputs := []string{
		"",
		"!!!???!!!",
		strings.Repeat("SHOCKING HOAX EXPOSED!!! ", 40),
		strings.Repeat("research study evidence according to data ", 40),
		"Some say it might possibly be true, allegedly, reportedly, supposedly.",
		citedPassage,
	}

	for _, profile := range []model.Profile{model.ProfileHighFidelity, model.ProfileRatio} {
		scorer := NewScorer(profile, model.DefaultVocabulary())
		for _, in := range inputs {
			result := scorer.Score(in)
			if result.Confidence < 0 || result.Confidence > 100 {
				t.Errorf("[%s] confidence %v out of range for %q", profile, result.Confidence, in)
			}
			if result.Verdict != model.VerdictFor(result.Confidence) {
				t.Errorf("[%s] verdict %s inconsistent with confidence %v", profile, result.Verdict, result.Confidence)
			}
			if result.Confidence != Round2(result.Confidence) {
				t.Errorf("[%s] confidence %v not rounded to two decimals", profile, result.Confidence)
			}
		}
	}
}

func TestScorer_Idempotent(t *testing.T) {
	scorer := NewDefaultScorer()

	first := scorer.Score(citedPassage)
	for i := 0; i < 5; i++ {
		if got := scorer.Score(citedPassage); !reflect.DeepEqual(first, got) {
			t.Fatalf("Expected identical results on call %d", i+2)
		}
	}
}

func TestScorer_RatioProfile(t *testing.T) {
	scorer := NewScorer(model.ProfileRatio, model.DefaultVocabulary())

	tests := []struct {
		name string
		text string
		want float64
	}{
		{"short unsourced default", "Hello world", 45},
		{"weighted cue share", "The study shows a hoax.", 66.67},
		{"sourced default", "See https://example.org for details.", 80},
		{"long default", strings.Repeat("plain words here ", 20), 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scorer.Score(tt.text)
			if result.Confidence != tt.want {
				t.Errorf("Expected confidence %.2f, got %.2f (signals: %+v)", tt.want, result.Confidence, result.Signals)
			}
			if result.Metrics.ContentLengthUnit != "characters" {
				t.Errorf("Expected content length in characters, got %q", result.Metrics.ContentLengthUnit)
			}
		})
	}
}

type fakeLookup struct {
	match     model.KnowledgeMatch
	matchErr  error
	scores    map[string]float64
	credErr   error
	lastQuery string
}

func (f *fakeLookup) FindExactMatch(_ context.Context, _ string) (model.KnowledgeMatch, error) {
	return f.match, f.matchErr
}

func (f *fakeLookup) DomainCredibility(_ context.Context, domain string) (float64, bool, error) {
	f.lastQuery = domain
	if f.credErr != nil {
		return 0, false, f.credErr
	}
	s, ok := f.scores[domain]
	return s, ok, nil
}

func TestBlender_KnowledgeMatchOverrides(t *testing.T) {
	tests := []struct {
		name    string
		match   model.KnowledgeMatch
		verdict model.Verdict
		label   string
	}{
		{"known true", model.MatchKnownTrue, model.VerdictTrue, "Known true"},
		{"known false", model.MatchKnownFalse, model.VerdictFalse, "Known false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBlender(NewDefaultScorer(), &fakeLookup{match: tt.match}, nil)
			result := b.Blend(context.Background(), "BREAKING!!! Secret cure they don't want you to know!!!", "")

			if result.Confidence != KnownMatchConfidence {
				t.Errorf("Expected confidence %v, got %v", KnownMatchConfidence, result.Confidence)
			}
			if result.Verdict != tt.verdict {
				t.Errorf("Expected verdict %s, got %s", tt.verdict, result.Verdict)
			}
			if result.Metrics.DatabaseMatch != tt.label {
				t.Errorf("Expected database match %q, got %q", tt.label, result.Metrics.DatabaseMatch)
			}
		})
	}
}

func TestBlender_DomainCredibility(t *testing.T) {
	lookup := &fakeLookup{scores: map[string]float64{"example.com": 0.9, "low.example": 0.1}}
	b := NewBlender(NewDefaultScorer(), lookup, nil)
	ctx := context.Background()

	// "Hello world" scores 50 heuristically
	high := b.Blend(ctx, "Hello world", "www.Example.com")
	if lookup.lastQuery != "example.com" {
		t.Errorf("Expected normalized domain lookup, got %q", lookup.lastQuery)
	}
	if high.Confidence != 62 || high.Verdict != model.VerdictTrue {
		t.Errorf("Expected 62/True, got %.2f/%s", high.Confidence, high.Verdict)
	}
	if high.Metrics.DomainCredibility != "90%" {
		t.Errorf("Expected domain credibility 90%%, got %q", high.Metrics.DomainCredibility)
	}
	if _, ok := findSignal(high.Signals, model.SignalDomainCredibility); !ok {
		t.Error("Expected domain_credibility signal")
	}

	low := b.Blend(ctx, "Hello world", "low.example")
	if low.Confidence != 38 || low.Verdict != model.VerdictFalse {
		t.Errorf("Expected 38/False, got %.2f/%s", low.Confidence, low.Verdict)
	}

	unrated := b.Blend(ctx, "Hello world", "unrated.example")
	if unrated.Confidence != 50 || unrated.Metrics.DomainCredibility != "" {
		t.Errorf("Expected unblended 50, got %.2f (%q)", unrated.Confidence, unrated.Metrics.DomainCredibility)
	}
}

func TestBlender_StorageFailureFallsBack(t *testing.T) {
	base := NewDefaultScorer().Score("Hello world")

	for name, lookup := range map[string]*fakeLookup{
		"match error":       {matchErr: errors.New("db down")},
		"credibility error": {credErr: errors.New("db down")},
	} {
		t.Run(name, func(t *testing.T) {
			b := NewBlender(NewDefaultScorer(), lookup, nil)
			got := b.Blend(context.Background(), "Hello world", "example.com")
			if !reflect.DeepEqual(base, got) {
				t.Errorf("Expected heuristic result on storage failure, got %+v", got)
			}
		})
	}
}

func TestBlender_NilLookup(t *testing.T) {
	b := NewBlender(nil, nil, nil)
	got := b.Blend(context.Background(), citedPassage, "example.com")
	if got.Confidence != 100 {
		t.Errorf("Expected heuristic confidence 100, got %.2f", got.Confidence)
	}
}

func signalDelta(signals []model.Signal, t model.SignalType) float64 {
	s, _ := findSignal(signals, t)
	return s.Delta
}

func TestScorer_HighFidelityBands(t *testing.T) {
	scorer := NewDefaultScorer()

	plain := func(words int) string {
		return strings.TrimSpace(strings.Repeat("plain words ", words/2))
	}

	tests := []struct {
		name   string
		text   string
		signal model.SignalType
		want   float64
	}{
		{"indicators strong credibility", "study study study hoax", model.SignalIndicatorBalance, 20},
		{"indicators moderate credibility", "study study hoax", model.SignalIndicatorBalance, 10},
		{"indicators even split", "study hoax", model.SignalIndicatorBalance, 10},
		{"indicators moderate misinformation", "study hoax hoax", model.SignalIndicatorBalance, -20},
		{"indicators strong misinformation", "study hoax hoax hoax", model.SignalIndicatorBalance, -35},
		{"no indicators", plain(30), model.SignalIndicatorBalance, 0},

		{"very short", plain(10), model.SignalContentLength, -15},
		{"medium length", plain(60), model.SignalContentLength, 0},
		{"long", plain(102), model.SignalContentLength, 10},
		{"long cyrillic", strings.Repeat("Учёные провели исследование и опубликовали результаты в журнале ", 20), model.SignalContentLength, 10},

		{"heavy capitals", strings.Repeat("ABCD efgh ", 6), model.SignalShouting, -25},
		{"elevated capitals", strings.Repeat("ABC defghi ", 6), model.SignalShouting, -15},
		{"capitals in short text", "ABCD EFGH", model.SignalShouting, 0},

		{"many punctuation bursts", "Wait!! Why?? No!! Stop?!", model.SignalPunctuation, -25},
		{"some punctuation bursts", "Wait!! Why??", model.SignalPunctuation, -15},
		{"single punctuation burst", "Wait!! ok", model.SignalPunctuation, 0},

		{"heavy hedging", "may might could possibly allegedly", model.SignalHedging, -20},
		{"some hedging", "may might could", model.SignalHedging, -10},
		{"light hedging", "may might", model.SignalHedging, 0},
		{"direct long text", plain(60), model.SignalHedging, 10},
		{"direct short text", plain(40), model.SignalHedging, 0},

		{"one source", "See https://example.com/a now", model.SignalSourcing, 15},
		{"three sources", "https://a.example https://b.example https://c.example", model.SignalSourcing, 20},

		{"one factual phrase", "The mayor stated that taxes rose", model.SignalFactualLanguage, 10},
		{"two factual phrases", "He stated that prices rose and she found that wages fell", model.SignalFactualLanguage, 15},

		{"one quotation", `He said "yes" today`, model.SignalQuotations, 5},
		{"two quotations", `"yes" and "no"`, model.SignalQuotations, 10},
		{"curly quotation", "He said “yes” today", model.SignalQuotations, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scorer.Score(tt.text)
			if got := signalDelta(result.Signals, tt.signal); got != tt.want {
				t.Errorf("Score(%q) %s delta = %v, want %v", tt.text, tt.signal, got, tt.want)
			}
		})
	}
}
