package knowledge

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

const (
	// cacheSize bounds the number of distinct user scopes held at once.
	cacheSize = 64
	// DefaultCacheTTL is how long a fetched list is served before the next
	// call refetches. The list changes rarely; staleness is acceptable.
	DefaultCacheTTL = 15 * time.Minute
)

// CachingProvider wraps a Provider with fetch-once-if-absent semantics:
// the first call per scope hits the backend, concurrent first calls are
// collapsed into a single flight, and later calls are served from the cache
// until the TTL expires.
type CachingProvider struct {
	inner Provider
	scope string
	cache *expirable.LRU[string, []KnowledgeBase]
	group singleflight.Group
}

// NewCachingProvider builds the cache around inner. scope keys the cache;
// pass a user or workspace identity so lists are not shared across users.
func NewCachingProvider(inner Provider, scope string, ttl time.Duration) *CachingProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachingProvider{
		inner: inner,
		scope: scope,
		cache: expirable.NewLRU[string, []KnowledgeBase](cacheSize, nil, ttl),
	}
}

func (c *CachingProvider) ListKnowledgeBases(ctx context.Context) ([]KnowledgeBase, error) {
	if cached, ok := c.cache.Get(c.scope); ok {
		return cached, nil
	}

	v, err, _ := c.group.Do(c.scope, func() (any, error) {
		if cached, ok := c.cache.Get(c.scope); ok {
			return cached, nil
		}
		bases, err := c.inner.ListKnowledgeBases(ctx)
		if err != nil {
			return nil, err
		}
		c.cache.Add(c.scope, bases)
		return bases, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]KnowledgeBase), nil
}

// Invalidate drops the cached list so the next call refetches.
func (c *CachingProvider) Invalidate() {
	c.cache.Remove(c.scope)
}
