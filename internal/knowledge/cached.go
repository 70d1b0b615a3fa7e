package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/ppiankov/truthguard/internal/cache"
)

type credibilityEntry struct {
	Score float64 `json:"score"`
	Found bool    `json:"found"`
}

// CachedStore caches domain credibility lookups in front of a Store.
// Exact matches are always answered by the store.
type CachedStore struct {
	Store
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedStore wraps store; a nil cache returns store unchanged
func NewCachedStore(store Store, c cache.Cache, ttl time.Duration) Store {
	if c == nil {
		return store
	}
	return &CachedStore{Store: store, cache: c, ttl: ttl}
}

func credibilityKey(domain string) string {
	return cache.CacheKey("credibility", domain)
}

// DomainCredibility serves from cache, including cached misses
func (s *CachedStore) DomainCredibility(ctx context.Context, domain string) (float64, bool, error) {
	key := credibilityKey(NormalizeDomain(domain))
	if raw, found := s.cache.Get(key); found {
		var entry credibilityEntry
		if err := json.Unmarshal(raw, &entry); err == nil {
			return entry.Score, entry.Found, nil
		}
	}

	score, found, err := s.Store.DomainCredibility(ctx, domain)
	if err != nil {
		return 0, false, err
	}

	if raw, err := json.Marshal(credibilityEntry{Score: score, Found: found}); err == nil {
		_ = s.cache.Set(key, raw, s.ttl)
	}
	return score, found, nil
}

// UpsertCredibility writes through and invalidates the cached rating
func (s *CachedStore) UpsertCredibility(ctx context.Context, domain string, score float64) error {
	if err := s.Store.UpsertCredibility(ctx, domain, score); err != nil {
		return err
	}
	_ = s.cache.Delete(credibilityKey(NormalizeDomain(domain)))
	return nil
}

// Close closes the store, then the cache if it holds connections
func (s *CachedStore) Close() error {
	err := s.Store.Close()
	if c, ok := s.cache.(io.Closer); ok {
		err = errors.Join(err, c.Close())
	}
	return err
}
