package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/truthguard/internal/extract"
	"github.com/ppiankov/truthguard/internal/knowledge"
	"github.com/ppiankov/truthguard/internal/metrics"
	"github.com/ppiankov/truthguard/internal/model"
	"github.com/ppiankov/truthguard/internal/score"
)

// PageFetcher turns a URL into analysable page content
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (*extract.Page, error)
}

// RateLimiter blocks until a request to rawURL may proceed
type RateLimiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// RobotsPolicy answers robots.txt questions for a URL
type RobotsPolicy interface {
	CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error)
}

// ErrDisallowed is recorded for pages robots.txt forbids
var ErrDisallowed = errors.New("disallowed by robots.txt")

type crawlItem struct {
	url   string
	depth int
}

// Crawler walks a site breadth-first from a seed, scoring each page.
// Fetches are strictly sequential.
type Crawler struct {
	fetcher PageFetcher
	blender *score.Blender
	limiter RateLimiter
	robots  RobotsPolicy
	logger  *slog.Logger
}

// CrawlerOption configures optional crawler collaborators
type CrawlerOption func(*Crawler)

// WithLimiter throttles fetches per domain
func WithLimiter(l RateLimiter) CrawlerOption {
	return func(c *Crawler) { c.limiter = l }
}

// WithRobots checks robots.txt before every fetch
func WithRobots(r RobotsPolicy) CrawlerOption {
	return func(c *Crawler) { c.robots = r }
}

// WithLogger sets the crawler's logger
func WithLogger(l *slog.Logger) CrawlerOption {
	return func(c *Crawler) { c.logger = l }
}

// NewCrawler creates a crawler
func NewCrawler(fetcher PageFetcher, blender *score.Blender, opts ...CrawlerOption) *Crawler {
	c := &Crawler{
		fetcher: fetcher,
		blender: blender,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ValidateCrawlRequest checks the seed is an absolute http(s) URL and the bounds are usable
func ValidateCrawlRequest(seed string, maxDepth, maxPages int) error {
	if err := ValidateURL(seed); err != nil {
		return err
	}
	if maxDepth < 0 {
		return fmt.Errorf("%w: depth must be >= 0, got %d", model.ErrInvalidInput, maxDepth)
	}
	if maxPages < 1 {
		return fmt.Errorf("%w: maxPages must be >= 1, got %d", model.ErrInvalidInput, maxPages)
	}
	return nil
}

// ValidateURL checks rawURL is an absolute http(s) URL
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("%w: invalid URL %q", model.ErrInvalidInput, rawURL)
	}
	return nil
}

// Crawl visits at most maxPages pages no deeper than maxDepth links from seed.
// Every dequeued URL is marked visited before it is fetched, so a failed
// fetch consumes its page slot and is never retried. Per-page failures are
// logged and recorded; cancelling ctx returns the results gathered so far.
func (c *Crawler) Crawl(ctx context.Context, seed string, maxDepth, maxPages int) (*model.CrawlReport, error) {
	if err := ValidateCrawlRequest(seed, maxDepth, maxPages); err != nil {
		return nil, err
	}

	report := &model.CrawlReport{
		CrawlStats: model.CrawlStats{
			SeedURL:  seed,
			MaxDepth: maxDepth,
			MaxPages: maxPages,
		},
		Results: []model.PageResult{},
	}

	visited := make(map[string]bool)
	queue := []crawlItem{{url: seed, depth: 0}}

	for len(queue) > 0 && len(visited) < maxPages {
		if ctx.Err() != nil {
			c.logger.Warn("crawl cancelled, returning partial results", "seed", seed, "visited", len(visited))
			break
		}

		item := queue[0]
		queue = queue[1:]

		if visited[item.url] || item.depth > maxDepth {
			continue
		}
		visited[item.url] = true

		page, err := c.visit(ctx, item.url)
		if err != nil {
			c.logger.Warn("crawl page failed", "url", item.url, "depth", item.depth, "error", err)
			report.Failures = append(report.Failures, model.PageFailure{
				URL:   item.url,
				Depth: item.depth,
				Error: err.Error(),
			})
			if errors.Is(err, ErrDisallowed) {
				metrics.CrawlPagesTotal.WithLabelValues("disallowed").Inc()
			} else {
				metrics.CrawlPagesTotal.WithLabelValues("failed").Inc()
			}
			continue
		}

		result := c.blender.Blend(ctx, page.Text, knowledge.NormalizeDomain(item.url))
		metrics.CrawlPagesTotal.WithLabelValues("scored").Inc()
		c.logger.Debug("crawl page scored", "url", item.url, "depth", item.depth,
			"verdict", result.Verdict, "confidence", result.Confidence)

		report.Results = append(report.Results, model.PageResult{
			URL:        item.url,
			Title:      page.Title,
			Depth:      item.depth,
			Language:   page.Language,
			Verdict:    result.Verdict,
			Confidence: result.Confidence,
			Metrics:    result.Metrics,
		})

		if item.depth < maxDepth {
			for _, link := range page.Links {
				if !visited[link] {
					queue = append(queue, crawlItem{url: link, depth: item.depth + 1})
				}
				if len(queue)+len(visited) >= maxPages {
					break
				}
			}
		}
	}

	report.CrawlStats.PagesVisited = len(visited)
	return report, nil
}

// visit applies robots.txt and rate limiting, then fetches the page
func (c *Crawler) visit(ctx context.Context, rawURL string) (*extract.Page, error) {
	if c.robots != nil {
		allowed, delay, err := c.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, &FetchError{URL: rawURL, Err: err}
		}
		if !allowed {
			return nil, &FetchError{URL: rawURL, Err: ErrDisallowed}
		}
		if delay > 0 {
			if err := sleepContext(ctx, delay); err != nil {
				return nil, err
			}
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	start := time.Now()
	page, err := c.fetcher.FetchPage(ctx, rawURL)
	metrics.FetchDuration.Observe(time.Since(start).Seconds())
	return page, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
