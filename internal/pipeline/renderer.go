package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/truthguard/internal/model"
)

const reportFooter = "_TruthGuard scores writing style and sourcing signals. It does not verify individual claims._"

// Renderer writes reports as JSON, Markdown and terminal summaries
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes v as indented JSON to path
func (r *Renderer) RenderJSON(v interface{}, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes the Markdown form of report to path
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// RenderLLMMarkdown writes an already rendered explanation to path
func (r *Renderer) RenderLLMMarkdown(markdown, path string) error {
	if markdown == "" {
		return nil
	}
	return writeFile(path, []byte(markdown))
}

// Markdown renders report as a Markdown document
func (r *Renderer) Markdown(report *model.Report) string {
	res := report.Result
	m := res.Metrics

	var b strings.Builder
	fmt.Fprintf(&b, "# TruthGuard Report: %s\n\n", report.Subject)

	fmt.Fprintf(&b, "**Verdict:** %s  \n", res.Verdict)
	fmt.Fprintf(&b, "**Confidence:** %.2f/100  \n", res.Confidence)
	if m.Profile != "" {
		fmt.Fprintf(&b, "**Profile:** %s  \n", m.Profile)
	}
	fmt.Fprintf(&b, "**Analyzed:** %s\n\n", report.AnalyzedAt.Format("2006-01-02 15:04:05 MST"))

	if src := report.Source; src.URL != "" || src.FileName != "" {
		b.WriteString("## Source\n\n")
		if src.URL != "" {
			fmt.Fprintf(&b, "- URL: %s\n", src.URL)
		}
		if src.Domain != "" {
			fmt.Fprintf(&b, "- Domain: %s\n", src.Domain)
		}
		if src.FileName != "" {
			fmt.Fprintf(&b, "- File: %s (%d bytes, %s)\n", src.FileName, src.FileSize, src.FileType)
		}
		if report.Language != "" {
			fmt.Fprintf(&b, "- Language: %s\n", report.Language)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Metrics\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	if m.DatabaseMatch != "" {
		fmt.Fprintf(&b, "| Database Match | %s |\n", m.DatabaseMatch)
	} else {
		fmt.Fprintf(&b, "| Words | %d |\n", m.WordCount)
		fmt.Fprintf(&b, "| Misinformation Cues | %d |\n", m.FakeIndicators)
		fmt.Fprintf(&b, "| Credibility Cues | %d |\n", m.TruthIndicators)
		fmt.Fprintf(&b, "| Sources | %d |\n", m.SourcesCount)
		fmt.Fprintf(&b, "| Weasel Words | %d |\n", m.WeaselWords)
		fmt.Fprintf(&b, "| Factual Phrases | %d |\n", m.FactualPhrases)
		fmt.Fprintf(&b, "| Quotations | %d |\n", m.Quotations)
		fmt.Fprintf(&b, "| Excessive Punctuation | %d |\n", m.ExcessivePunctuation)
		fmt.Fprintf(&b, "| Capitals | %.1f%% |\n", m.CapsRatio*100)
		if m.Sentiment != "" {
			fmt.Fprintf(&b, "| Sentiment | %s |\n", m.Sentiment)
		}
	}
	if m.DomainCredibility != "" {
		fmt.Fprintf(&b, "| Domain Credibility | %s |\n", m.DomainCredibility)
	}
	b.WriteString("\n")

	if len(res.Signals) > 0 {
		b.WriteString("## Signals\n\n")
		for _, s := range res.Signals {
			fmt.Fprintf(&b, "- **%s** (%+.2f, %s): %s\n", s.Type, s.Delta, s.Severity, s.Description)
		}
		b.WriteString("\n")
	}

	if len(report.CitedURLs) > 0 {
		b.WriteString("## Cited URLs\n\n")
		for _, u := range report.CitedURLs {
			fmt.Fprintf(&b, "- %s\n", u)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString(reportFooter)
		b.WriteString("\n")
	}

	return b.String()
}

// RenderSummary prints a short terminal summary of report
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	res := report.Result
	m := res.Metrics

	fmt.Fprintln(w)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  %s\n", report.Subject)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Verdict:      %s\n", res.Verdict)
	fmt.Fprintf(w, "  Confidence:   %.2f/100\n", res.Confidence)
	if m.DatabaseMatch != "" {
		fmt.Fprintf(w, "  Database:     %s\n", m.DatabaseMatch)
	} else {
		fmt.Fprintf(w, "  Words:        %d\n", m.WordCount)
		fmt.Fprintf(w, "  Cues:         %d misinformation / %d credibility\n", m.FakeIndicators, m.TruthIndicators)
		fmt.Fprintf(w, "  Sources:      %d\n", m.SourcesCount)
	}
	if m.DomainCredibility != "" {
		fmt.Fprintf(w, "  Domain:       %s\n", m.DomainCredibility)
	}
	if report.LLM != nil && report.LLM.Enabled {
		fmt.Fprintf(w, "  Explanation:  %s\n", report.LLM.Provider)
	}
	fmt.Fprintln(w)
}

// RenderCrawlSummary prints one line per crawled page
func (r *Renderer) RenderCrawlSummary(w io.Writer, report *model.CrawlReport) {
	stats := report.CrawlStats

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Crawl of %s (depth %d, max %d pages)\n", stats.SeedURL, stats.MaxDepth, stats.MaxPages)
	fmt.Fprintln(w)
	for _, res := range report.Results {
		title := res.Title
		if title == "" {
			title = res.URL
		}
		fmt.Fprintf(w, "  ✓ [%d] %-5s %6.2f  %s\n", res.Depth, res.Verdict, res.Confidence, title)
	}
	for _, f := range report.Failures {
		fmt.Fprintf(w, "  ✗ [%d] %s: %s\n", f.Depth, f.URL, f.Error)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Visited: %d  Scored: %d  Failed: %d\n", stats.PagesVisited, len(report.Results), len(report.Failures))
	fmt.Fprintln(w)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}
