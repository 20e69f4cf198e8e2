package cache

import (
	"sync"
	"time"
)

// sweepAt is the size from which Set starts purging expired entries.
const sweepAt = 256

// Cache is a small TTL map. Expired entries are dropped on read, and by Set
// at most once per TTL once the map holds sweepAt entries.
type Cache[V any] struct {
	mu        sync.RWMutex
	ttl       time.Duration
	now       func() time.Time
	m         map[string]entry[V]
	nextSweep time.Time
}

type entry[V any] struct {
	val V
	exp time.Time
}

func New[V any](ttl time.Duration) *Cache[V] {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache[V]{
		ttl: ttl,
		now: time.Now,
		m:   make(map[string]entry[V]),
	}
}

// WithClock swaps the time source; used by tests.
func (c *Cache[V]) WithClock(now func() time.Time) *Cache[V] {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
	return c
}

func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.RLock()
	now := c.now()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}

	if now.After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return zero, false
	}

	return e.val, true
}

func (c *Cache[V]) Set(key string, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if len(c.m) >= sweepAt && now.After(c.nextSweep) {
		c.sweep(now)
		c.nextSweep = now.Add(c.ttl)
	}

	c.m[key] = entry[V]{val: val, exp: now.Add(c.ttl)}
}

// sweep drops expired entries; caller holds mu.
func (c *Cache[V]) sweep(now time.Time) {
	for k, e := range c.m {
		if now.After(e.exp) {
			delete(c.m, k)
		}
	}
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
