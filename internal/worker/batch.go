package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/truthguard/internal/model"
)

// Scanner scores the page behind a URL
type Scanner interface {
	ScoreURL(ctx context.Context, url string) (*model.Report, error)
}

// ScanJob scores one URL of a batch
type ScanJob struct {
	Index   int
	URL     string
	Scanner Scanner
	Limiter *Limiter
}

// Execute waits for the host's rate limit, then scores the URL
func (j *ScanJob) Execute(ctx context.Context) Result {
	start := time.Now()
	result := &ScanResult{Index: j.Index, URL: j.URL}

	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.URL); err != nil {
			result.Error = fmt.Errorf("rate limit: %w", err)
			result.Duration = time.Since(start)
			return result
		}
	}

	result.Report, result.Error = j.Scanner.ScoreURL(ctx, j.URL)
	if result.Error != nil {
		result.Report = nil
	}
	result.Duration = time.Since(start)
	return result
}

// ScanResult is the outcome for one batch URL
type ScanResult struct {
	Index    int
	URL      string
	Report   *model.Report
	Error    error
	Duration time.Duration
}

// GetError returns the error from the scan result
func (r *ScanResult) GetError() error {
	return r.Error
}

// BatchProcessor scores many URLs concurrently
type BatchProcessor struct {
	scanner     Scanner
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a batch processor. A nil limiter disables
// per-host throttling.
func NewBatchProcessor(scanner Scanner, concurrency int, limiter *Limiter) *BatchProcessor {
	return &BatchProcessor{
		scanner:     scanner,
		concurrency: concurrency,
		limiter:     limiter,
	}
}

// ProcessURLs scores every URL and returns the results in input order.
// URLs never started because ctx was cancelled carry ctx's error.
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*ScanResult {
	if len(urls) == 0 {
		return []*ScanResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	defer pool.Shutdown()

	go func() {
		defer pool.Close()
		for i, url := range urls {
			job := &ScanJob{Index: i, URL: url, Scanner: b.scanner, Limiter: b.limiter}
			if !pool.Submit(job) {
				return
			}
		}
	}()

	ordered := make([]*ScanResult, len(urls))
	for result := range pool.Results() {
		r := result.(*ScanResult)
		ordered[r.Index] = r
	}

	for i, r := range ordered {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			ordered[i] = &ScanResult{Index: i, URL: urls[i], Error: err}
		}
	}

	return ordered
}

// ProcessFile reads URLs from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ScanResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}

	return b.ProcessURLs(ctx, urls), nil
}

// ReadURLsFromFile reads URLs from a file, one per line. Blank lines and
// lines starting with # are skipped; duplicates keep their first position.
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
