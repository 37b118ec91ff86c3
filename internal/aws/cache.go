package aws

import (
	"sync"
	"time"
)

type cacheEntry struct {
	value    any
	expires  time.Time
	inserted time.Time
}

// ttlCache is a small bounded cache for describe results. When full it
// evicts the oldest entry.
type ttlCache struct {
	mu       sync.RWMutex
	ttl      time.Duration
	capacity int
	data     map[string]cacheEntry
}

func newTTLCache(ttl time.Duration, capacity int) *ttlCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if capacity <= 0 {
		capacity = 1000
	}
	return &ttlCache{
		ttl:      ttl,
		capacity: capacity,
		data:     make(map[string]cacheEntry),
	}
}

func (c *ttlCache) get(key string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expires) {
		c.mu.Lock()
		delete(c.data, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

func (c *ttlCache) set(key string, value any) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.data) >= c.capacity {
		c.evictLocked(now)
	}
	c.data[key] = cacheEntry{value: value, expires: now.Add(c.ttl), inserted: now}
}

// evictLocked drops every expired entry, falling back to the single
// oldest insertion when nothing has expired yet.
func (c *ttlCache) evictLocked(now time.Time) {
	evicted := false
	for k, v := range c.data {
		if now.After(v.expires) {
			delete(c.data, k)
			evicted = true
		}
	}
	if evicted {
		return
	}
	var oldest string
	var oldestAt time.Time
	for k, v := range c.data {
		if oldestAt.IsZero() || v.inserted.Before(oldestAt) {
			oldest, oldestAt = k, v.inserted
		}
	}
	delete(c.data, oldest)
}

func (c *ttlCache) invalidate(key string) {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
}
