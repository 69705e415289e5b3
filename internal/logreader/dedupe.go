package logreader

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Defaults for the replayed line cache.
const (
	DefaultDedupeSize = 1024
	DefaultDedupeTTL  = 10 * time.Minute
)

// dedupeCache remembers recently handled lines so a log that is rewritten or
// re-read after rotation does not count the same completion twice.
type dedupeCache struct {
	lru *expirable.LRU[string, struct{}]
}

func newDedupeCache(size int, ttl time.Duration) *dedupeCache {
	if size <= 0 {
		size = DefaultDedupeSize
	}
	if ttl <= 0 {
		ttl = DefaultDedupeTTL
	}
	return &dedupeCache{
		lru: expirable.NewLRU[string, struct{}](size, nil, ttl),
	}
}

// Contains reports whether entry was already handled. Entries without a
// timestamp are never considered duplicates.
func (c *dedupeCache) Contains(entry *LogEntry) bool {
	key := entry.key()
	return key != "" && c.lru.Contains(key)
}

// Add marks entry as handled.
func (c *dedupeCache) Add(entry *LogEntry) {
	if key := entry.key(); key != "" {
		c.lru.Add(key, struct{}{})
	}
}

func (c *dedupeCache) Len() int {
	return c.lru.Len()
}
