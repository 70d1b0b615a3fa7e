package worker

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/ppiankov/truthguard/internal/knowledge"
	"github.com/ppiankov/truthguard/internal/model"
)

// bucketIdleTTL is how long an unused bucket is kept before eviction
const bucketIdleTTL = 10 * time.Minute

// Limiter implements per-host rate limiting. Hosts are keyed the way
// credibility ratings are, so www.example.com and example.com share a bucket.
// Buckets idle for longer than the TTL are evicted; domain overrides are kept.
type Limiter struct {
	buckets      *gocache.Cache
	ttl          time.Duration
	overrides    map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new rate limiter; a non-positive rate disables limiting
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	return newLimiterWithTTL(requestsPerSecond, burst, bucketIdleTTL)
}

// NewLimiterFromConfig creates a limiter with the configured default rate
// and per-domain overrides
func NewLimiterFromConfig(cfg model.RateLimitConfig) *Limiter {
	l := NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize)
	for _, r := range cfg.Domains {
		if r.Host == "" {
			continue
		}
		l.SetDomainRate(r.Host, r.RequestsPerSecond, r.BurstSize)
	}
	return l
}

func newLimiterWithTTL(requestsPerSecond float64, burst int, ttl time.Duration) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		buckets:      gocache.New(ttl, ttl),
		ttl:          ttl,
		overrides:    make(map[string]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// Wait waits for rate limit clearance for the given URL
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host, err := limiterKey(rawURL)
	if err != nil {
		return err
	}

	return l.getLimiter(host).Wait(ctx)
}

// AllowKey checks an arbitrary bucket, such as a client address
func (l *Limiter) AllowKey(key string) bool {
	return l.getLimiter(key).Allow()
}

func (l *Limiter) getLimiter(key string) *rate.Limiter {
	l.mu.RLock()
	override, ok := l.overrides[key]
	l.mu.RUnlock()
	if ok {
		return override
	}

	if v, found := l.buckets.Get(key); found {
		limiter := v.(*rate.Limiter)
		l.buckets.Set(key, limiter, l.ttl) // sliding expiry
		return limiter
	}

	limiter := rate.NewLimiter(l.defaultRate, l.defaultBurst)
	if err := l.buckets.Add(key, limiter, l.ttl); err != nil {
		// Lost the race to another caller; use theirs
		if v, found := l.buckets.Get(key); found {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}

// SetDomainRate sets a custom rate limit for a specific host
func (l *Limiter) SetDomainRate(domain string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	key := knowledge.NormalizeDomain(domain)
	l.overrides[key] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	l.buckets.Delete(key)
}

// limiterKey extracts the normalized host from a URL
func limiterKey(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("no host in URL: %s", rawURL)
	}
	return knowledge.NormalizeDomain(parsed.Host), nil
}
