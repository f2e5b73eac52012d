// Package rendercache memoizes node artifacts across render passes.
//
// Entries are keyed by output node id plus the document revision at render
// time, so every committed edit implicitly starts a fresh key space; stale
// revisions age out via TTL.
package rendercache

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/KaelanRichards/artemisia/internal/log"
)

const DefaultExpiration = 5 * time.Minute
const DefaultCleanupInterval = 15 * time.Minute

// Cache is an in-memory TTL cache for render artifacts.
type Cache[V any] struct {
	useCase string
	cache   *gocache.Cache
}

// New initializes the cache with the given default expiration and cleanup
// interval.
func New[V any](useCase string, defaultExpiration, cleanupInterval time.Duration) *Cache[V] {
	return &Cache[V]{
		useCase: useCase,
		cache:   gocache.New(defaultExpiration, cleanupInterval),
	}
}

// Key builds the cache key for a node artifact at a document revision.
func Key(nodeID string, revision uint64) string {
	return fmt.Sprintf("%s@%d", nodeID, revision)
}

// Get retrieves an item from the cache by its key.
func (c *Cache[V]) Get(ctx context.Context, key string) (V, bool) {
	var zeroValue V

	value, found := c.cache.Get(key)
	if !found {
		return zeroValue, false
	}

	// Type assertion check to ensure the type is correct
	v, ok := value.(V)
	if !ok {
		log.Error(log.CatCache, "wrong type assertion when getting value", "key", key, "use_case", c.useCase)
		return zeroValue, false
	}

	log.Debug(log.CatCache, "cache hit", "key", key, "use_case", c.useCase)
	return v, true
}

// Set stores a value with a key and TTL. A zero ttl uses the default.
func (c *Cache[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(key, value, ttl)
}

// Delete removes values by key.
func (c *Cache[V]) Delete(ctx context.Context, keys ...string) {
	for _, key := range keys {
		c.cache.Delete(key)
	}
}

// Flush drops every entry.
func (c *Cache[V]) Flush(ctx context.Context) {
	c.cache.Flush()
}

// Len returns the number of live entries, expired ones included until the
// next cleanup run.
func (c *Cache[V]) Len() int {
	return c.cache.ItemCount()
}
