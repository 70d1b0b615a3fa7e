package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/truthguard/internal/extract"
	"github.com/ppiankov/truthguard/internal/model"
	"github.com/ppiankov/truthguard/internal/score"
)

// fakeSite serves pages from memory and records every fetch
type fakeSite struct {
	pages   map[string]*extract.Page
	failing map[string]bool
	fetched []string
}

func (s *fakeSite) FetchPage(_ context.Context, url string) (*extract.Page, error) {
	s.fetched = append(s.fetched, url)
	if s.failing[url] {
		return nil, &FetchError{URL: url, StatusCode: 500, Err: errors.New("unexpected status: 500 500 Internal Server Error")}
	}
	page, ok := s.pages[url]
	if !ok {
		return nil, &FetchError{URL: url, StatusCode: 404, Err: errors.New("unexpected status: 404 404 Not Found")}
	}
	return page, nil
}

func page(title string, links ...string) *extract.Page {
	return &extract.Page{
		Title: title,
		Text:  "Researchers found that the study was published in a journal according to the university.",
		Links: links,
	}
}

func newTestCrawler(site *fakeSite, opts ...CrawlerOption) *Crawler {
	return NewCrawler(site, score.NewBlender(score.NewDefaultScorer(), nil, nil), opts...)
}

func TestCrawl_RootWithFiveSubpages(t *testing.T) {
	root := "https://example.test"
	site := &fakeSite{pages: map[string]*extract.Page{
		root: page("Home",
			root+"/a", root+"/b", root+"/c", root+"/d", root+"/e"),
	}}
	for _, p := range []string{"a", "b", "c", "d", "e"} {
		site.pages[root+"/"+p] = page(strings.ToUpper(p))
	}

	report, err := newTestCrawler(site).Crawl(context.Background(), root, 1, 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if report.CrawlStats.PagesVisited > 3 {
		t.Errorf("Expected at most 3 pages visited, got %d", report.CrawlStats.PagesVisited)
	}
	if len(report.Results) != report.CrawlStats.PagesVisited {
		t.Errorf("Expected %d results, got %d", report.CrawlStats.PagesVisited, len(report.Results))
	}

	want := []string{root, root + "/a", root + "/b"}
	if fmt.Sprint(site.fetched) != fmt.Sprint(want) {
		t.Errorf("Expected fetch order %v, got %v", want, site.fetched)
	}
	if report.Results[1].Depth != 1 {
		t.Errorf("Expected subpage depth 1, got %d", report.Results[1].Depth)
	}
	if report.CrawlStats.SeedURL != root || report.CrawlStats.MaxDepth != 1 || report.CrawlStats.MaxPages != 3 {
		t.Errorf("Unexpected crawl stats: %+v", report.CrawlStats)
	}
}

func TestCrawl_FailedFetchConsumesSlot(t *testing.T) {
	root := "https://example.test/"
	site := &fakeSite{
		pages: map[string]*extract.Page{
			root:                      page("Home", "https://example.test/a", "https://example.test/b", "https://example.test/c"),
			"https://example.test/b": page("B"),
			"https://example.test/c": page("C"),
		},
		failing: map[string]bool{"https://example.test/a": true},
	}

	report, err := newTestCrawler(site).Crawl(context.Background(), root, 1, 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if report.CrawlStats.PagesVisited != 3 {
		t.Errorf("Expected 3 visited (failure counts), got %d", report.CrawlStats.PagesVisited)
	}
	if len(report.Results) != 2 {
		t.Errorf("Expected 2 results, got %d", len(report.Results))
	}
	if len(report.Failures) != 1 || report.Failures[0].URL != "https://example.test/a" {
		t.Errorf("Expected one failure for /a, got %+v", report.Failures)
	}
	for _, u := range site.fetched {
		if u == "https://example.test/c" {
			t.Error("Expected /c to be outside the page budget")
		}
	}
}

func TestCrawl_CycleTerminates(t *testing.T) {
	a, b := "https://cycle.test/a", "https://cycle.test/b"
	site := &fakeSite{pages: map[string]*extract.Page{
		a: page("A", b, a),
		b: page("B", a, b),
	}}

	report, err := newTestCrawler(site).Crawl(context.Background(), a, 10, 50)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if report.CrawlStats.PagesVisited != 2 {
		t.Errorf("Expected 2 pages visited, got %d", report.CrawlStats.PagesVisited)
	}
	if len(site.fetched) != 2 {
		t.Errorf("Expected each page fetched once, got %v", site.fetched)
	}
}

func TestCrawl_DepthBound(t *testing.T) {
	site := &fakeSite{pages: map[string]*extract.Page{
		"https://chain.test/":  page("0", "https://chain.test/1"),
		"https://chain.test/1": page("1", "https://chain.test/2"),
		"https://chain.test/2": page("2", "https://chain.test/3"),
		"https://chain.test/3": page("3"),
	}}

	report, err := newTestCrawler(site).Crawl(context.Background(), "https://chain.test/", 2, 10)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if report.CrawlStats.PagesVisited != 3 {
		t.Errorf("Expected 3 pages within depth 2, got %d", report.CrawlStats.PagesVisited)
	}
	for _, r := range report.Results {
		if r.Depth > 2 {
			t.Errorf("Result %s exceeds max depth: %d", r.URL, r.Depth)
		}
	}
}

func TestCrawl_DepthZeroFetchesSeedOnly(t *testing.T) {
	site := &fakeSite{pages: map[string]*extract.Page{
		"https://solo.test/": page("Solo", "https://solo.test/a"),
	}}

	report, err := newTestCrawler(site).Crawl(context.Background(), "https://solo.test/", 0, 5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if report.CrawlStats.PagesVisited != 1 || len(site.fetched) != 1 {
		t.Errorf("Expected only the seed, fetched %v", site.fetched)
	}
}

type denyRobots struct{ path string }

func (d denyRobots) CanFetch(_ context.Context, rawURL string) (bool, time.Duration, error) {
	return !strings.HasSuffix(rawURL, d.path), 0, nil
}

func TestCrawl_RobotsDisallowIsFailure(t *testing.T) {
	site := &fakeSite{pages: map[string]*extract.Page{
		"https://robots.test/":        page("Home", "https://robots.test/private"),
		"https://robots.test/private": page("Private"),
	}}

	report, err := newTestCrawler(site, WithRobots(denyRobots{path: "/private"})).
		Crawl(context.Background(), "https://robots.test/", 1, 5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(report.Failures) != 1 || !strings.Contains(report.Failures[0].Error, ErrDisallowed.Error()) {
		t.Errorf("Expected a robots failure, got %+v", report.Failures)
	}
	if len(site.fetched) != 1 {
		t.Errorf("Expected disallowed page never fetched, got %v", site.fetched)
	}
}

type countingLimiter struct{ calls int }

func (l *countingLimiter) Wait(context.Context, string) error {
	l.calls++
	return nil
}

func TestCrawl_UsesLimiter(t *testing.T) {
	site := &fakeSite{pages: map[string]*extract.Page{
		"https://limit.test/":  page("Home", "https://limit.test/a"),
		"https://limit.test/a": page("A"),
	}}
	limiter := &countingLimiter{}

	if _, err := newTestCrawler(site, WithLimiter(limiter)).Crawl(context.Background(), "https://limit.test/", 1, 5); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if limiter.calls != 2 {
		t.Errorf("Expected limiter consulted per fetch, got %d", limiter.calls)
	}
}

func TestCrawl_CancelledReturnsPartial(t *testing.T) {
	site := &fakeSite{pages: map[string]*extract.Page{"https://cancel.test/": page("Home")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newTestCrawler(site).Crawl(ctx, "https://cancel.test/", 1, 5)
	if err != nil {
		t.Fatalf("Expected partial report, got error %v", err)
	}
	if report.CrawlStats.PagesVisited != 0 || len(report.Results) != 0 {
		t.Errorf("Expected nothing visited, got %+v", report.CrawlStats)
	}
}

func TestCrawl_InvalidInput(t *testing.T) {
	c := newTestCrawler(&fakeSite{})

	tests := []struct {
		name     string
		seed     string
		depth    int
		maxPages int
	}{
		{"relative seed", "/just/a/path", 1, 5},
		{"ftp seed", "ftp://example.test/", 1, 5},
		{"negative depth", "https://example.test/", -1, 5},
		{"zero pages", "https://example.test/", 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Crawl(context.Background(), tt.seed, tt.depth, tt.maxPages)
			if !errors.Is(err, model.ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

type stubLookup struct{ scores map[string]float64 }

func (s stubLookup) FindExactMatch(context.Context, string) (model.KnowledgeMatch, error) {
	return model.MatchNone, nil
}

func (s stubLookup) DomainCredibility(_ context.Context, domain string) (float64, bool, error) {
	v, ok := s.scores[domain]
	return v, ok, nil
}

func TestCrawl_HTTPServer(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Path {
		case "/":
			_, _ = fmt.Fprintf(w, `<html><head><title>Root</title><style>p{}</style></head><body>
				<p>The study was published in a peer-reviewed journal.</p>
				<a href="%s/one">one</a><a href="/relative">skipped</a><a href="%s/one">dup</a>
				<script>var x = "secret";</script></body></html>`, server.URL, server.URL)
		case "/one":
			_, _ = fmt.Fprint(w, `<html><head><title>One</title></head><body><p>Second page text.</p></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "")
	blender := score.NewBlender(score.NewDefaultScorer(), stubLookup{scores: map[string]float64{"127.0.0.1": 0.9}}, nil)

	report, err := NewCrawler(fetcher, blender).Crawl(context.Background(), server.URL+"/", 1, 5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if report.CrawlStats.PagesVisited != 2 || len(report.Results) != 2 {
		t.Fatalf("Expected 2 pages, got %+v", report.CrawlStats)
	}
	if report.Results[0].Title != "Root" || report.Results[1].Title != "One" {
		t.Errorf("Unexpected titles: %q, %q", report.Results[0].Title, report.Results[1].Title)
	}
	if report.Results[0].Metrics.FakeIndicators != 0 {
		t.Error("Expected script content excluded from scoring")
	}
	if report.Results[0].Metrics.DomainCredibility != "90%" {
		t.Errorf("Expected host credibility blended in, got %q", report.Results[0].Metrics.DomainCredibility)
	}
}
