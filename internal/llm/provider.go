package llm

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ppiankov/truthguard/internal/model"
)

// systemPrompt frames every provider call
const systemPrompt = "You are a helpful assistant that explains TruthGuard credibility reports with strict adherence to evidence constraints."

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize generates an explanation of the report with strict evidence mode
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM explanation
type SummarizeRequest struct {
	Report model.Report

	// EvidenceURLs is the STRICT allowlist of URLs the LLM can cite:
	// only URLs that appear in the analysed content or its source
	EvidenceURLs []string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	MaxTokens int
}

// SummarizeResponse contains the LLM's output
type SummarizeResponse struct {
	Summary    string
	CitedURLs  []string // URLs the LLM actually cited (for verification)
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", "" (disabled)
	Provider string

	Model   string
	APIKey  string
	BaseURL string
	Timeout int // seconds

	// StrictEvidence enforces URL allowlist (should always be true)
	StrictEvidence bool

	MaxTokens int

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:       "", // Disabled by default
		Timeout:        30,
		StrictEvidence: true,
		MaxTokens:      1000,
	}
}

// BuildPrompt constructs the default explanation prompt with strict evidence mode
func BuildPrompt(report model.Report, evidenceURLs []string) string {
	r := report.Result
	m := r.Metrics

	var b strings.Builder
	fmt.Fprintf(&b, `You are explaining a TruthGuard report. TruthGuard scores writing style and sourcing signals - it does NOT fact-check individual claims.

CRITICAL RULES:
1. You MUST ONLY cite URLs from this allowed list:
%s

2. DO NOT infer, speculate, or cite external sources beyond this list.
3. Do not dispute or change the verdict. Explain which signals produced it.
4. Never say "this is true" or "this is false" as a statement of fact - only describe the signals.

Report Summary:
- Subject: %s
- Verdict: %s (confidence %.2f/100)
- Scoring Profile: %s
- Words: %d
- Misinformation Cues: %d
- Credibility Cues: %d
- Sources Cited: %d
- Weasel Words: %d
`, joinURLs(evidenceURLs), report.Subject, r.Verdict, r.Confidence, m.Profile,
		m.WordCount, m.FakeIndicators, m.TruthIndicators, m.SourcesCount, m.WeaselWords)

	if m.DomainCredibility != "" {
		fmt.Fprintf(&b, "- Domain Credibility: %s\n", m.DomainCredibility)
	}
	if m.DatabaseMatch != "" {
		fmt.Fprintf(&b, "- Stored Example Match: %s\n", m.DatabaseMatch)
	}

	b.WriteString("\nKey Signals:\n")
	for _, signal := range topSignals(r.Signals, 5) {
		fmt.Fprintf(&b, "- %s (%+.0f): %s\n", signal.Type, signal.Delta, signal.Description)
	}

	b.WriteString("\nProvide a 3-4 sentence explanation of why the content received this verdict.")

	return b.String()
}

// topSignals returns the n adjustments with the largest effect, baseline excluded
func topSignals(signals []model.Signal, n int) []model.Signal {
	var picked []model.Signal
	for _, s := range signals {
		if s.Type != model.SignalBaseline {
			picked = append(picked, s)
		}
	}
	sort.SliceStable(picked, func(i, j int) bool {
		return math.Abs(picked[i].Delta) > math.Abs(picked[j].Delta)
	})
	if len(picked) > n {
		picked = picked[:n]
	}
	return picked
}

func joinURLs(urls []string) string {
	if len(urls) == 0 {
		return "(No evidence URLs available)"
	}
	var b strings.Builder
	for i, url := range urls {
		if i >= 20 { // Limit to first 20 to avoid token bloat
			fmt.Fprintf(&b, "\n... and %d more URLs", len(urls)-20)
			break
		}
		fmt.Fprintf(&b, "\n- %s", url)
	}
	return b.String()
}

// verifyCitations rejects any cited URL outside the allowlist
func verifyCitations(strict bool, allowed, cited []string) error {
	if !strict {
		return nil
	}
	for _, c := range cited {
		if !contains(allowed, c) {
			return fmt.Errorf("CITATION LEAK: LLM cited disallowed URL: %s", c)
		}
	}
	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
