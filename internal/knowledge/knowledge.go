// Package knowledge persists known-true and known-false examples, per-domain
// credibility ratings and user feedback, and answers lookups against them.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/OneOfOne/xxhash"
	"github.com/ppiankov/truthguard/internal/model"
)

// SnippetRunes is how much of a text is compared against stored examples
const SnippetRunes = 500

// ErrStorageUnavailable wraps any failure to reach the backing store
var ErrStorageUnavailable = errors.New("knowledge storage unavailable")

// Lookup answers the two read-only questions the scorer asks of stored knowledge
type Lookup interface {
	// FindExactMatch reports whether the first 500 characters of text appear
	// inside a stored known-true (checked first) or known-false example.
	FindExactMatch(ctx context.Context, text string) (model.KnowledgeMatch, error)

	// DomainCredibility returns the stored rating in [0,1] for an exact domain
	DomainCredibility(ctx context.Context, domain string) (float64, bool, error)
}

// Store is a writable knowledge base
type Store interface {
	Lookup

	AddExample(ctx context.Context, ex Example) error
	UpsertCredibility(ctx context.Context, domain string, score float64) error
	RecordFeedback(ctx context.Context, fb Feedback) error
	FeedbackCount(ctx context.Context, content string) (int, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Example is a labelled article
type Example struct {
	Title   string
	Content string
	Source  string
	IsTrue  bool
}

// Feedback is a user's judgement of a verdict
type Feedback struct {
	Content       string
	UserVerdict   string // correct, incorrect
	SystemVerdict string
	Confidence    float64
}

// Stats counts rows per table
type Stats struct {
	KnownTrue  int64 `json:"knownTrue"`
	KnownFalse int64 `json:"knownFalse"`
	Domains    int64 `json:"domains"`
	Feedback   int64 `json:"feedback"`
}

// Snippet returns the leading part of text used for exact matching
func Snippet(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) > SnippetRunes {
		runes = runes[:SnippetRunes]
	}
	return string(runes)
}

// ContentHash is the stable feedback key for a piece of content
func ContentHash(content string) string {
	h := xxhash.NewS64(0)
	_, _ = h.Write([]byte(content))
	return fmt.Sprintf("%016x", h.Sum64())
}

// NormalizeDomain reduces a URL or host to the form credibility ratings are keyed by:
// lower-case host without port and without a leading "www."
func NormalizeDomain(hostOrURL string) string {
	host := strings.TrimSpace(hostOrURL)
	if strings.Contains(host, "://") {
		parsed, err := url.Parse(host)
		if err != nil {
			return ""
		}
		host = parsed.Host
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	host = strings.ToLower(strings.TrimSuffix(host, "."))
	return strings.TrimPrefix(host, "www.")
}

// ValidateScore checks a credibility rating is within [0,1]
func ValidateScore(score float64) error {
	if score < 0 || score > 1 {
		return fmt.Errorf("%w: credibility score %v outside [0,1]", model.ErrInvalidInput, score)
	}
	return nil
}

// Open creates the store selected by configuration. Driver "none" returns nil.
func Open(cfg model.StorageConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		s, err := NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "mysql":
		s, err := NewGormStore(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s (supported: sqlite, mysql, none)", cfg.Driver)
	}
}
