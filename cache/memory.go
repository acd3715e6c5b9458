package cache

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	value     string
	timestamp time.Time
}

// Stats counts cache lookups.
type Stats struct {
	Hits    int64
	Misses  int64
	Evicted int64
}

// InMemoryCache is a thread-safe in-memory cache with TTL support and an
// optional entry limit.
type InMemoryCache struct {
	mu         sync.RWMutex
	cache      map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	stats      Stats
	now        func() time.Time
}

// MemoryOption configures an InMemoryCache.
type MemoryOption func(*InMemoryCache)

// WithMaxEntries bounds the cache; the oldest entry is evicted when full.
func WithMaxEntries(n int) MemoryOption {
	return func(c *InMemoryCache) {
		c.maxEntries = n
	}
}

// NewInMemoryCache creates a new in-memory cache with the specified TTL.
// If ttlSeconds is 0 or negative, entries never expire.
func NewInMemoryCache(ttlSeconds int, opts ...MemoryOption) *InMemoryCache {
	c := &InMemoryCache{
		cache: make(map[string]cacheEntry),
		now:   time.Now,
	}
	if ttlSeconds > 0 {
		c.ttl = time.Duration(ttlSeconds) * time.Second
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *InMemoryCache) expired(e cacheEntry, now time.Time) bool {
	return c.ttl > 0 && now.Sub(e.timestamp) > c.ttl
}

// Get returns the value and true if found and not expired.
func (c *InMemoryCache) Get(ctx context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.cache[key]
	if ok && c.expired(entry, c.now()) {
		delete(c.cache, key)
		ok = false
	}
	if !ok {
		c.stats.Misses++
		return "", false
	}
	c.stats.Hits++
	return entry.value, true
}

// Set stores a value in the cache.
func (c *InMemoryCache) Set(ctx context.Context, key string, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.cache[key]; !exists && c.maxEntries > 0 && len(c.cache) >= c.maxEntries {
		c.evictOldest()
	}
	c.cache[key] = cacheEntry{value: value, timestamp: c.now()}
	return nil
}

// evictOldest must be called with mu held.
func (c *InMemoryCache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, e := range c.cache {
		if first || e.timestamp.Before(oldest) {
			oldestKey, oldest, first = k, e.timestamp, false
		}
	}
	if !first {
		delete(c.cache, oldestKey)
		c.stats.Evicted++
	}
}

// Len returns the number of entries in the cache (including expired ones).
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Clear removes all entries from the cache.
func (c *InMemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]cacheEntry)
}

// Stats returns a snapshot of the lookup counters.
func (c *InMemoryCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Entries returns all non-expired entries.
func (c *InMemoryCache) Entries(ctx context.Context) (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	result := make(map[string]string, len(c.cache))
	for key, entry := range c.cache {
		if c.expired(entry, now) {
			continue
		}
		result[key] = entry.value
	}
	return result, nil
}

var _ Lister = (*InMemoryCache)(nil)
