// Package cache provides the advisory in-memory retrieval result cache.
// Entries expire after a TTL and are evicted lazily on access; a miss is
// always safe for callers.
package cache

import (
	"sync"
	"time"

	"github.com/kirillkom/adaptive-retrieval/internal/core/domain"
)

type entry struct {
	result    *domain.RetrievalResult
	expiresAt time.Time
}

// ResultCache is a bounded TTL cache safe for concurrent use.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

func NewResultCache(ttl time.Duration, maxSize int) *ResultCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxSize <= 0 {
		maxSize = 256
	}
	return &ResultCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

func (c *ResultCache) Get(key string) (*domain.RetrievalResult, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have renewed it.
		if cur, ok := c.entries[key]; ok && c.now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.result, true
}

func (c *ResultCache) Set(key string, result *domain.RetrievalResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictExpiredLocked()
	if len(c.entries) >= c.maxSize {
		c.evictOldestLocked()
	}
	c.entries[key] = entry{result: result, expiresAt: c.now().Add(c.ttl)}
}

func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ResultCache) evictExpiredLocked() {
	now := c.now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// evictOldestLocked drops the entry closest to expiry to make room.
func (c *ResultCache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for key, e := range c.entries {
		if first || e.expiresAt.Before(oldest) {
			oldestKey, oldest = key, e.expiresAt
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
