// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache provides a TTL key/value store backing session state and
// terminal research results.
package cache

import (
	"sync"
	"time"
)

// entry is one stored value with its expiry.
type entry struct {
	value     any
	createdAt time.Time
	expiresAt time.Time
}

// Cache is an in-process TTL map with per-key atomic access. Expired
// entries are evicted lazily on read; Sweep can run in the background to
// bound memory between reads.
type Cache struct {
	mu    sync.Mutex
	items map[string]entry
	now   func() time.Time
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		items: make(map[string]entry),
		now:   time.Now,
	}
}

// Get returns the value for key, or false when absent or past its TTL. An
// expired entry is removed on access.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.items, key)
		return nil, false
	}
	return e.value, true
}

// Put stores value under key for ttl. A non-positive ttl stores nothing.
func (c *Cache) Put(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
}

// Touch extends the TTL of an existing live entry and reports whether the
// key was present and unexpired.
func (c *Cache) Touch(key string, ttl time.Duration) bool {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return false
	}
	if now.After(e.expiresAt) {
		delete(c.items, key)
		return false
	}
	e.expiresAt = now.Add(ttl)
	c.items[key] = e
	return true
}

// Delete removes key if present.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Len returns the number of stored entries, including any not yet swept.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Sweep removes all expired entries and returns how many were evicted.
func (c *Cache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
			evicted++
		}
	}
	return evicted
}

// SweepEvery runs Sweep at the given interval until stop is closed.
func (c *Cache) SweepEvery(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}
