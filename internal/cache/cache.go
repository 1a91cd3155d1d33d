// Package cache provides a small TTL cache for ledger-derived views (balance
// lists, net balances, settlement plans). The engine does no incremental
// bookkeeping, so every ledger write must invalidate the affected group's
// entries; a stale derived value must never outlive a write.
package cache

import (
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a concurrency-safe in-memory cache keyed by string. Keys are
// conventionally "<view>:<group_id>" so a whole group can be invalidated by
// suffix.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

// Key builds the conventional "<view>:<group_id>" cache key.
func Key(view, groupID string) string {
	return view + ":" + groupID
}

// Get returns the cached value for key, or (nil, false) if absent or expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores a value under key for the given TTL.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// InvalidateGroup drops every entry belonging to the group.
func (c *Cache) InvalidateGroup(groupID string) {
	suffix := ":" + groupID
	c.mu.Lock()
	for key := range c.entries {
		if strings.HasSuffix(key, suffix) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// InvalidateAll drops every entry. Used after a queue drain, where actions may
// have touched any number of groups.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}
