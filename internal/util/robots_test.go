package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRobotsChecker_CanFetch(t *testing.T) {
	var robotsHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsHits.Add(1)
			_, _ = fmt.Fprint(w, "User-agent: TruthGuard\nDisallow: /private\nCrawl-delay: 2\n\nUser-agent: *\nDisallow: /\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewRobotsChecker(nil, "TruthGuard/0.1 (+https://github.com/ppiankov/truthguard)", 5*time.Second, time.Minute)
	ctx := context.Background()

	allowed, delay, err := checker.CanFetch(ctx, server.URL+"/news/story")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !allowed {
		t.Error("Expected /news/story to be allowed")
	}
	if delay != 2*time.Second {
		t.Errorf("Expected crawl delay 2s, got %v", delay)
	}

	if checker.IsAllowed(ctx, server.URL+"/private/page") {
		t.Error("Expected /private/page to be disallowed")
	}

	if robotsHits.Load() != 1 {
		t.Errorf("Expected robots.txt fetched once, got %d", robotsHits.Load())
	}

	checker.Clear()
	checker.IsAllowed(ctx, server.URL+"/")
	if robotsHits.Load() != 2 {
		t.Errorf("Expected refetch after Clear, got %d fetches", robotsHits.Load())
	}
}

func TestRobotsChecker_MissingRobotsAllowsAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	checker := NewRobotsChecker(nil, "TruthGuard/0.1", 5*time.Second, time.Minute)
	if !checker.IsAllowed(context.Background(), server.URL+"/anything") {
		t.Error("Expected everything allowed without robots.txt")
	}
}

func TestRobotsChecker_UnreachableAllows(t *testing.T) {
	checker := NewRobotsChecker(nil, "TruthGuard/0.1", time.Second, time.Minute)
	allowed, _, err := checker.CanFetch(context.Background(), "http://127.0.0.1:1/page")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !allowed {
		t.Error("Expected unreachable robots.txt to allow fetching")
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	tests := map[string]string{
		"TruthGuard/0.1 (+https://github.com/ppiankov/truthguard)": "TruthGuard",
		"curl/8.0": "curl",
		"plain":    "plain",
		"":         "",
	}
	for in, want := range tests {
		if got := NormalizeUserAgent(in); got != want {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", in, got, want)
		}
	}
}
