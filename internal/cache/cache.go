// Package cache provides a generic in-memory key/value cache with per-entry TTL.
// Entries expire lazily: a lookup past the expiry removes the entry and reports
// a miss. There is no size bound or eviction beyond TTL, so the cache can grow
// without limit under a widening key space. That is a known limitation.
package cache

import (
	"sync"
	"time"
)

// DefaultCleanupInterval is how often expired entries are swept opportunistically.
const DefaultCleanupInterval = 5 * time.Minute

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a concurrency-safe TTL cache.
type Cache[K comparable, V any] struct {
	mu          sync.Mutex
	entries     map[K]entry[V]
	lastCleanup time.Time

	// now is overridable for tests.
	now func() time.Time
}

// New creates an empty cache.
func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		entries:     make(map[K]entry[V]),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// Set stores value under key with an absolute expiry of now+ttl.
// A non-positive ttl stores an already-expired entry.
func (c *Cache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: now.Add(ttl),
	}

	c.cleanupLocked(now)
}

// Get returns the value for key if present and not expired.
// Discovering an expired entry removes it.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}

	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}

	return e.value, true
}

// Clear removes all entries.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]entry[V])
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// cleanupLocked sweeps expired entries if the cleanup interval has passed.
// Callers must hold c.mu.
func (c *Cache[K, V]) cleanupLocked(now time.Time) {
	if now.Sub(c.lastCleanup) < DefaultCleanupInterval {
		return
	}
	c.lastCleanup = now

	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// SetClock overrides the cache's time source. Intended for tests.
func (c *Cache[K, V]) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
