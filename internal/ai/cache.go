package ai

import (
	"sync"
	"time"
)

const defaultCacheTTL = time.Hour

type cacheEntry struct {
	result    RouteResult
	expiresAt time.Time
}

// ResponseCache is a TTL keyed store mapping a request fingerprint to a
// previously computed result. Expired entries are evicted lazily on the next
// read; entries that are never read again stay until the cache is discarded,
// which is acceptable for this bounded-lifetime service.
type ResponseCache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	defaultTTL time.Duration
	hits       int64
	misses     int64
	now        func() time.Time
}

// NewResponseCache creates a response cache. defaultTTL applies when Set is
// called with a non-positive TTL; zero defaultTTL falls back to one hour.
func NewResponseCache(defaultTTL time.Duration) *ResponseCache {
	if defaultTTL <= 0 {
		defaultTTL = defaultCacheTTL
	}
	return &ResponseCache{
		entries:    make(map[string]cacheEntry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Get returns the cached result for a fingerprint. A hit or miss counter is
// bumped on every call; an expired entry counts as a miss and is evicted.
func (c *ResponseCache) Get(fingerprint string) (RouteResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[fingerprint]
	if !ok {
		c.misses++
		return RouteResult{}, false
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, fingerprint)
		c.misses++
		return RouteResult{}, false
	}

	c.hits++
	return entry.result, true
}

// Set stores a result under a fingerprint, unconditionally overwriting any
// existing entry. A non-positive ttl uses the configured default.
func (c *ResponseCache) Set(fingerprint string, result RouteResult, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[fingerprint] = cacheEntry{
		result:    result,
		expiresAt: c.now().Add(ttl),
	}
}

// Size returns the number of stored entries, including expired ones that have
// not been swept yet.
func (c *ResponseCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// HitRate returns the fraction of Get calls that were hits, 0 when the cache
// has never been read.
func (c *ResponseCache) HitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}
