package cache

import (
	"context"
	"time"

	"spotifier-core/lib/timezone"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryEntry struct {
	data      string
	expiresAt time.Time
}

// MemoryCache is an in-process cache bounded to a fixed number of entries,
// the least recently used entry is evicted first.
type MemoryCache struct {
	lru *expirable.LRU[string, memoryEntry]
	now func() time.Time
}

func NewMemoryCache(size int) *MemoryCache {
	if size <= 0 {
		size = 1024
	}
	return &MemoryCache{
		// entries carry their own expiry, the lru itself never expires them.
		lru: expirable.NewLRU[string, memoryEntry](size, nil, 0),
		now: timezone.Now,
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (string, bool) {
	_, span := startSpan(ctx, "cache:get", "memory", key)
	defer span.End()

	entry, ok := c.lru.Get(key)
	if !ok {
		recordHit(span, false)
		return "", false
	}
	if c.now().After(entry.expiresAt) {
		c.lru.Remove(key)
		recordHit(span, false)
		return "", false
	}
	recordHit(span, true)
	return entry.data, true
}

func (c *MemoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	_, span := startSpan(ctx, "cache:set", "memory", key)
	defer span.End()

	err := checkTTL(span, ttl)
	if err != nil {
		return err
	}
	c.lru.Add(key, memoryEntry{
		data:      value,
		expiresAt: c.now().Add(ttl),
	})
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	_, span := startSpan(ctx, "cache:delete", "memory", key)
	defer span.End()

	c.lru.Remove(key)
	return nil
}

func (c *MemoryCache) Len() int {
	return c.lru.Len()
}
