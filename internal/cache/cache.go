// Package cache implements the Cache (C8): a small, implementation-
// agnostic get/put/invalidate/stats contract with per-key TTL, backed
// by an in-memory LRU. The cache is never authoritative — a miss is
// always a correctness-safe fallback to recomputation.
package cache

import (
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Stats reports cumulative cache usage.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int
}

// Cache is the component contract every cache implementation satisfies.
// Values are opaque bytes; callers own their own (de)serialization.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte, ttl time.Duration)
	Invalidate(key string)
	Stats() Stats
}

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// LRU is an in-memory Cache backed by hashicorp/golang-lru, bounded by
// maxEntries. hashicorp/golang-lru/v2's Cache is internally
// mutex-guarded, so concurrent Get/Put/Invalidate calls are safe
// without an additional lock here (P3).
type LRU struct {
	inner  *lru.Cache[string, entry]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewLRU builds an LRU cache holding at most maxEntries keys. When
// maxEntries <= 0, spec §6's documented default of 100,000 is used.
func NewLRU(maxEntries int) *LRU {
	if maxEntries <= 0 {
		maxEntries = 100_000
	}
	inner, _ := lru.New[string, entry](maxEntries)
	return &LRU{inner: inner}
}

// Get returns the value for key, or (nil, false) on miss or expiry
// (P1: an expired entry is never returned — it is evicted on read).
func (c *LRU) Get(key string) ([]byte, bool) {
	e, ok := c.inner.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.inner.Remove(key)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return e.value, true
}

// Put stores value under key with the given ttl (zero means no
// expiry). Last write for a key wins (T7); the underlying LRU's
// locked Add makes each Put atomic per key (P2).
func (c *LRU) Put(key string, value []byte, ttl time.Duration) {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	c.inner.Add(key, entry{value: value, expiresAt: expiresAt})
}

// Invalidate removes key regardless of TTL.
func (c *LRU) Invalidate(key string) {
	c.inner.Remove(key)
}

// Stats returns cumulative hit/miss counters and the current size.
func (c *LRU) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.inner.Len(),
	}
}
