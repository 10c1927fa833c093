// Package cache provides an in-memory TTL cache used for dashboard sessions
// and recommendation lookups.
package cache

import (
	"sync"
	"time"
)

const defaultCleanupInterval = time.Minute

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache maps string keys to values that expire after a fixed TTL.
// Get does not refresh the TTL; callers that want sliding expiry use Touch
// or GetOrCreate.
type TTLCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[V]
	ttl     time.Duration
	stopCh  chan struct{}
	once    sync.Once
	onEvict func(key string, value V)
}

// New creates a cache and starts its janitor. A non-positive interval uses
// one minute.
func New[V any](ttl, cleanupInterval time.Duration) *TTLCache[V] {
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}
	c := &TTLCache[V]{
		entries: make(map[string]*entry[V]),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}
	go c.cleanup(cleanupInterval)
	return c
}

// SetOnEvict registers a callback for entries removed by the janitor. It runs
// outside the lock.
func (c *TTLCache[V]) SetOnEvict(fn func(key string, value V)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onEvict = fn
}

// Get returns a live value.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero V
	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return zero, false
	}
	return e.value, true
}

// Set stores a value with a fresh TTL.
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry[V]{value: value, expiresAt: time.Now().Add(c.ttl)}
}

// GetOrCreate returns the live value for key, creating it with create when
// absent or expired. The second result is true when the value was created.
// The lookup and insert happen under one lock, so concurrent callers agree on
// a single value.
func (c *TTLCache[V]) GetOrCreate(key string, create func() V) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if e, ok := c.entries[key]; ok && now.Before(e.expiresAt) {
		e.expiresAt = now.Add(c.ttl)
		return e.value, false
	}
	v := create()
	c.entries[key] = &entry[V]{value: v, expiresAt: now.Add(c.ttl)}
	return v, true
}

// Touch extends the TTL of a live entry.
func (c *TTLCache[V]) Touch(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	e, ok := c.entries[key]
	if !ok || now.After(e.expiresAt) {
		return false
	}
	e.expiresAt = now.Add(c.ttl)
	return true
}

// Delete removes a key.
func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Len counts live entries.
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	n := 0
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}

// Clear removes all entries.
func (c *TTLCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry[V])
}

// Stop stops the janitor. It is safe to call more than once.
func (c *TTLCache[V]) Stop() {
	c.once.Do(func() { close(c.stopCh) })
}

// Stats returns counters for the health endpoint.
func (c *TTLCache[V]) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	expired := 0
	now := time.Now()
	for _, e := range c.entries {
		if now.After(e.expiresAt) {
			expired++
		}
	}
	return map[string]interface{}{
		"total_entries":   len(c.entries),
		"expired_entries": expired,
		"active_entries":  len(c.entries) - expired,
		"ttl_seconds":     c.ttl.Seconds(),
	}
}

func (c *TTLCache[V]) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *TTLCache[V]) evictExpired() {
	type evicted struct {
		key   string
		value V
	}
	var gone []evicted

	c.mu.Lock()
	now := time.Now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			gone = append(gone, evicted{key, e.value})
			delete(c.entries, key)
		}
	}
	onEvict := c.onEvict
	c.mu.Unlock()

	if onEvict == nil {
		return
	}
	for _, g := range gone {
		onEvict(g.key, g.value)
	}
}
