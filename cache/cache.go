// Package cache provides the concurrent key/value store shared by the
// runners of a resolution.
//
// Entries are keyed by string and hold arbitrary values (fetched documents,
// registered runners). An optional TTL makes stale entries read as misses;
// nothing is evicted in the background.
package cache

import (
	"sync"
	"time"
)

// Stats reports how many lookups found a live entry.
type Stats struct {
	Hits   int64 `json:"hits" yaml:"hits"`
	Misses int64 `json:"misses" yaml:"misses"`
}

// entry stores a value with its insertion time for TTL-based expiration.
type entry struct {
	value  any
	stored time.Time
}

// Cache is a key/value store safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	stats   Stats
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets how long an entry stays live after Set.
// Zero (default) keeps entries forever.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// withClock replaces the time source; used by tests.
func withClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates an empty Cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value stored under key and records a hit or a miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.live(key)
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	return e.value, true
}

// Has reports whether key holds a live entry and records a hit or a miss.
func (c *Cache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Set stores value under key, replacing any previous entry.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	c.entries[key] = &entry{value: value, stored: c.now()}
	c.mu.Unlock()
}

// Delete removes key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Purge removes every entry and resets the statistics.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.stats = Stats{}
	c.mu.Unlock()
}

// Len returns the number of stored entries, including expired ones that
// have not been overwritten yet.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the hit/miss counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// live must be called with c.mu held.
func (c *Cache) live(key string) (*entry, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.stored) >= c.ttl {
		return nil, false
	}
	return e, true
}
