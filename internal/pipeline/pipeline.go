package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/truthguard/internal/extract"
	"github.com/ppiankov/truthguard/internal/knowledge"
	"github.com/ppiankov/truthguard/internal/llm"
	"github.com/ppiankov/truthguard/internal/metrics"
	"github.com/ppiankov/truthguard/internal/model"
	"github.com/ppiankov/truthguard/internal/score"
	"github.com/ppiankov/truthguard/internal/util"
	"github.com/ppiankov/truthguard/internal/worker"
)

// subjectRunes bounds the subject derived from free text
const subjectRunes = 80

// Pipeline wires fetching, scoring, stored knowledge and reporting together.
// It is shared by the CLI, the batch processor and the HTTP API.
type Pipeline struct {
	config     *model.Config
	store      knowledge.Store
	blender    *score.Blender
	fetcher    *Fetcher
	crawler    *Crawler
	renderer   *Renderer
	summarizer *llm.Summarizer // Optional LLM summarizer (nil if disabled)
	logger     *slog.Logger
}

// NewPipeline creates a pipeline. store may be nil, in which case scores are
// purely heuristic and the storage operations return ErrStorageUnavailable.
func NewPipeline(cfg *model.Config, store knowledge.Store) (*Pipeline, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	logger := slog.Default()

	profile, err := model.ParseProfile(cfg.Scoring.Profile)
	if err != nil {
		return nil, err
	}
	vocab, err := model.LoadVocabulary(cfg.Scoring.VocabularyFile)
	if err != nil {
		return nil, err
	}

	var lookup knowledge.Lookup
	if store != nil {
		lookup = store
	}
	blender := score.NewBlender(score.NewScorer(profile, vocab), lookup, logger)

	fetcher := NewFetcherFromConfig(cfg.HTTP)

	opts := []CrawlerOption{
		WithLimiter(worker.NewLimiterFromConfig(cfg.RateLimiting)),
		WithLogger(logger),
	}
	if cfg.HTTP.RespectRobots {
		robots := util.NewRobotsChecker(fetcher.Client(), cfg.HTTP.UserAgent, cfg.HTTP.Timeout, time.Hour)
		opts = append(opts, WithRobots(robots))
	}

	// LLM failures are not fatal; reports are produced without explanations
	var summarizer *llm.Summarizer
	if cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
		if err != nil {
			logger.Warn("failed to initialize LLM provider", "provider", cfg.LLM.Provider, "error", err)
		} else {
			summarizer = s
		}
	}

	return &Pipeline{
		config:     cfg,
		store:      store,
		blender:    blender,
		fetcher:    fetcher,
		crawler:    NewCrawler(fetcher, blender, opts...),
		renderer:   NewRenderer(cfg.Output.IncludeFooter),
		summarizer: summarizer,
		logger:     logger,
	}, nil
}

// Store returns the knowledge store, or nil when storage is disabled
func (p *Pipeline) Store() knowledge.Store {
	return p.store
}

// Renderer returns the report renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// LLMProvider names the active explanation provider, or "" when disabled
func (p *Pipeline) LLMProvider() string {
	return p.summarizer.ProviderName()
}

// Profile returns the active scoring profile
func (p *Pipeline) Profile() model.Profile {
	return p.blender.Scorer().Profile()
}

// AnalyzeText scores free text. Text has no domain, so only exact
// knowledge matches can override the heuristic score.
func (p *Pipeline) AnalyzeText(ctx context.Context, text string) (*model.Report, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: content is required", model.ErrInvalidInput)
	}

	report := p.newReport(ctx, text, "")
	report.Subject = subjectFromText(text)

	p.finish(ctx, report, "text")
	return report, nil
}

// ScoreURL fetches a page and scores its visible text, blended with the
// stored credibility of its host
func (p *Pipeline) ScoreURL(ctx context.Context, rawURL string) (*model.Report, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	fetched, page, err := p.fetcher.FetchDocument(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	domain := knowledge.NormalizeDomain(fetched.FinalURL)
	report := p.newReport(ctx, page.Text, domain)

	report.Subject = page.Title
	if report.Subject == "" {
		report.Subject = fetched.Subject
	}
	report.Source = model.Source{
		URL:    fetched.FinalURL,
		Title:  page.Title,
		Domain: hostname(fetched.FinalURL),
	}
	meta := fetched.Meta
	report.FetchMeta = &meta
	if page.Language != "" {
		report.Language = page.Language
	}

	p.finish(ctx, report, "url")
	return report, nil
}

// ScoreFile reads a local file and scores it
func (p *Pipeline) ScoreFile(ctx context.Context, path string) (*model.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return p.AnalyzeFile(ctx, filepath.Base(path), "", data)
}

// AnalyzeFile scores uploaded or local file content. Plain text, Markdown
// and HTML are supported; PDF and Word documents are rejected.
func (p *Pipeline) AnalyzeFile(ctx context.Context, name, contentType string, data []byte) (*model.Report, error) {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	text, title, err := fileText(name, contentType, data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: file %s has no text", model.ErrInvalidInput, name)
	}

	report := p.newReport(ctx, text, "")
	report.Subject = title
	if report.Subject == "" {
		report.Subject = name
	}
	report.Source = model.Source{
		Title:    title,
		FileName: name,
		FileSize: int64(len(data)),
		FileType: contentType,
	}

	p.finish(ctx, report, "file")
	return report, nil
}

// ScoreText scores text with the heuristic profile only
func (p *Pipeline) ScoreText(text string) model.ScoreResult {
	return p.blender.Scorer().Score(text)
}

// ScoreTextWithKnowledge scores text against stored examples and, when
// domain is rated, blends in its credibility
func (p *Pipeline) ScoreTextWithKnowledge(ctx context.Context, text, domain string) model.ScoreResult {
	return p.blender.Blend(ctx, text, domain)
}

// CrawlAndScore runs a bounded breadth-first crawl from seed
func (p *Pipeline) CrawlAndScore(ctx context.Context, seed string, maxDepth, maxPages int) (*model.CrawlReport, error) {
	return p.crawler.Crawl(ctx, strings.TrimSpace(seed), maxDepth, maxPages)
}

// RecordFeedback stores a user's judgement of a verdict
func (p *Pipeline) RecordFeedback(ctx context.Context, fb knowledge.Feedback) error {
	if p.store == nil {
		return knowledge.ErrStorageUnavailable
	}
	if strings.TrimSpace(fb.Content) == "" {
		return fmt.Errorf("%w: content is required", model.ErrInvalidInput)
	}
	return p.store.RecordFeedback(ctx, fb)
}

// AddExample stores a labelled training example
func (p *Pipeline) AddExample(ctx context.Context, ex knowledge.Example) error {
	if p.store == nil {
		return knowledge.ErrStorageUnavailable
	}
	return p.store.AddExample(ctx, ex)
}

func (p *Pipeline) newReport(ctx context.Context, text, domain string) *model.Report {
	return &model.Report{
		AnalyzedAt: time.Now().UTC(),
		Language:   extract.DetectLanguage(text),
		Result:     p.blender.Blend(ctx, text, domain),
		CitedURLs:  extract.ExtractURLs(text),
	}
}

// finish records metrics and attaches the optional explanation.
// The explanation runs after scoring and never changes the result.
func (p *Pipeline) finish(ctx context.Context, report *model.Report, kind string) {
	metrics.AnalysesTotal.WithLabelValues(kind, string(report.Result.Verdict)).Inc()

	if p.summarizer == nil || !p.summarizer.IsEnabled() {
		return
	}
	summary, err := p.summarizer.GenerateSummary(ctx, *report)
	if err != nil {
		p.logger.Warn("LLM summary generation failed", "subject", report.Subject, "error", err)
		return
	}
	report.LLM = summary
}

// RenderReport writes the JSON and Markdown reports and prints the summary
func (p *Pipeline) RenderReport(report *model.Report, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	if report.LLM != nil && report.LLM.Enabled && mdPath != "" {
		llmPath := strings.TrimSuffix(mdPath, ".md") + ".llm.md"
		if err := p.renderer.RenderLLMMarkdown(llm.RenderSeparateMarkdown(report.LLM), llmPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to write LLM summary: %v\n", err)
		} else if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote LLM Summary: %s\n", llmPath)
		}
	}

	p.renderer.RenderSummary(os.Stdout, report)
	return nil
}

// fileText extracts analysable text and an optional title from file content
func fileText(name, contentType string, data []byte) (text, title string, err error) {
	ext := strings.ToLower(filepath.Ext(name))
	ct := strings.ToLower(contentType)

	switch {
	case ext == ".pdf" || ext == ".doc" || ext == ".docx" ||
		strings.Contains(ct, "pdf") || strings.Contains(ct, "msword") || strings.Contains(ct, "officedocument"):
		return "", "", fmt.Errorf("%w: %s (convert to .txt first)", model.ErrUnsupportedFile, name)

	case ext == ".html" || ext == ".htm" || strings.Contains(ct, "html"):
		page, err := extract.ParsePage(string(data))
		if err != nil {
			return "", "", err
		}
		return page.Text, page.Title, nil

	case ext == ".txt" || ext == ".md" || ext == ".markdown" || ext == "" || strings.HasPrefix(ct, "text/"):
		if !utf8.Valid(data) {
			return "", "", fmt.Errorf("%w: %s is not UTF-8 text", model.ErrUnsupportedFile, name)
		}
		return string(data), "", nil

	default:
		return "", "", fmt.Errorf("%w: %s", model.ErrUnsupportedFile, name)
	}
}

// subjectFromText uses the first line of text, shortened
func subjectFromText(text string) string {
	line := strings.TrimSpace(text)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	if utf8.RuneCountInString(line) <= subjectRunes {
		return line
	}
	runes := []rune(line)
	return strings.TrimSpace(string(runes[:subjectRunes])) + "..."
}

// hostname is the URL's host without port, as reported in source metadata
func hostname(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}
