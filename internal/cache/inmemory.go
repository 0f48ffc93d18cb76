package cache

import (
	"context"
	"time"

	goCache "github.com/patrickmn/go-cache"
	"github.com/quizfunnel/leadsync/internal/config"
)

// DefaultExpiration is the default expiration time for cache entries
const DefaultExpiration = 30 * time.Minute

// DefaultCleanupInterval is how often expired items are removed from the cache
const DefaultCleanupInterval = 10 * time.Minute

// InMemoryCache implements the Cache interface using github.com/patrickmn/go-cache
type InMemoryCache struct {
	cache *goCache.Cache
}

var _ Cache = (*InMemoryCache)(nil)

// NewInMemoryCache creates a cache whose default expiration follows the webhook dedup window
func NewInMemoryCache(cfg *config.Configuration) *InMemoryCache {
	expiration := DefaultExpiration
	if cfg != nil && cfg.Entitlement.EventDedupTTL > 0 {
		expiration = cfg.Entitlement.EventDedupTTL
	}
	return &InMemoryCache{
		cache: goCache.New(expiration, DefaultCleanupInterval),
	}
}

// Get retrieves a value from the cache
func (c *InMemoryCache) Get(ctx context.Context, key string) (interface{}, bool) {
	span := startSpan(ctx, "get", key)
	value, found := c.cache.Get(key)
	finishSpan(span, found)
	return value, found
}

// Set adds a value to the cache with the specified expiration
func (c *InMemoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) {
	span := startSpan(ctx, "put", key)
	c.cache.Set(key, value, toGoCacheExpiration(expiration))
	finishSpan(span, false)
}

// Add stores value only when key is absent, atomically
func (c *InMemoryCache) Add(ctx context.Context, key string, value interface{}, expiration time.Duration) bool {
	span := startSpan(ctx, "put", key)
	added := c.cache.Add(key, value, toGoCacheExpiration(expiration)) == nil
	finishSpan(span, !added)
	return added
}

// Delete removes a key from the cache
func (c *InMemoryCache) Delete(_ context.Context, key string) {
	c.cache.Delete(key)
}

// Flush removes all items from the cache
func (c *InMemoryCache) Flush(_ context.Context) {
	c.cache.Flush()
}

func toGoCacheExpiration(expiration time.Duration) time.Duration {
	if expiration <= 0 {
		return goCache.DefaultExpiration
	}
	return expiration
}
