// Package cache keeps AI summarization results so repeated digests within
// the TTL window do not spend model budget on articles already summarized.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

type Item struct {
	Summary   string
	Strategy  string
	ExpiresAt time.Time
}

type Cache struct {
	mu    sync.RWMutex
	items map[string]Item
}

func New() *Cache {
	c := &Cache{
		items: make(map[string]Item),
	}

	// Cleanup expired items every hour
	go c.cleanupLoop()

	return c
}

func (c *Cache) Set(key, summary, strategy string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = Item{
		Summary:   summary,
		Strategy:  strategy,
		ExpiresAt: time.Now().Add(ttl),
	}
}

// Get reports a miss for expired entries; the cleanup loop removes them.
func (c *Cache) Get(key string) (Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists || time.Now().After(item.ExpiresAt) {
		return Item{}, false
	}

	return item, true
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// GenerateKey derives a stable cache key from the article title and the
// content that was sent to the model.
func (c *Cache) GenerateKey(title, content string) string {
	h := sha256.New()
	h.Write([]byte(title + content))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanup()
	}
}

func (c *Cache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, item := range c.items {
		if now.After(item.ExpiresAt) {
			delete(c.items, key)
		}
	}
}
