package cache

import (
	"sync"
	"time"

	"DashSync/pkg/clock"
)

// NewsTTL is how long a news batch is served before a refresh is required.
const NewsTTL = 300 * time.Second

// Entry is a cached value and the time it was stored.
type Entry[V any] struct {
	Value    V
	StoredAt time.Time
}

// TTLCache is a keyed cache with a fixed TTL and lazy expiry.
// Stale entries stay in the map until overwritten; there is no background sweep
// and no capacity bound.
type TTLCache[K comparable, V any] struct {
	mu    sync.RWMutex
	m     map[K]Entry[V]
	ttl   time.Duration
	clock clock.Clock
}

// NewTTLCache creates a cache whose entries are valid for ttl.
func NewTTLCache[K comparable, V any](ttl time.Duration, clk clock.Clock) *TTLCache[K, V] {
	if clk == nil {
		clk = clock.New()
	}
	return &TTLCache[K, V]{m: make(map[K]Entry[V]), ttl: ttl, clock: clk}
}

// Get returns the value iff an entry exists and now - storedAt < ttl.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok || c.clock.Now().Sub(e.StoredAt) >= c.ttl {
		var zero V
		return zero, false
	}
	return e.Value, true
}

// Put overwrites the entry for key with storedAt = now.
func (c *TTLCache[K, V]) Put(key K, v V) {
	now := c.clock.Now()
	c.mu.Lock()
	c.m[key] = Entry[V]{Value: v, StoredAt: now}
	c.mu.Unlock()
}

// Entry returns the raw entry, stale or not.
func (c *TTLCache[K, V]) Entry(key K) (Entry[V], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.m[key]
	return e, ok
}

// Len counts entries including stale ones.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// TTL returns the fixed time-to-live.
func (c *TTLCache[K, V]) TTL() time.Duration { return c.ttl }
