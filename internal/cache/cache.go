package cache

import (
	"sync"
	"time"
)

// Cache is a small in-process map whose entries carry their own expiry.
type Cache struct {
	mu  sync.RWMutex
	now func() time.Time
	m   map[string]entry
}
type entry struct {
	val any
	exp time.Time
}

func New() *Cache {
	return NewWithClock(time.Now)
}

func NewWithClock(now func() time.Time) *Cache {
	return &Cache{
		now: now,
		m:   make(map[string]entry),
	}
}

func (c *Cache) Get(key string) (any, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if now.Before(e.exp) {
		return e.val, true
	}

	// re-check under the write lock; a concurrent SetUntil may have replaced it
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok = c.m[key]
	if !ok {
		return nil, false
	}
	if now.Before(e.exp) {
		return e.val, true
	}

	delete(c.m, key)
	return nil, false
}

// SetUntil stores val until exp. Entries already past exp are not stored.
func (c *Cache) SetUntil(key string, val any, exp time.Time) {
	if !c.now().Before(exp) {
		return
	}

	c.mu.Lock()
	c.m[key] = entry{val: val, exp: exp}
	c.mu.Unlock()
}

// Purge drops expired entries and returns how many remain.
func (c *Cache) Purge() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.m {
		if !now.Before(e.exp) {
			delete(c.m, k)
		}
	}

	return len(c.m)
}
