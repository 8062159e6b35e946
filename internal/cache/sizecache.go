package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/meriley/lingua-nexus/internal/core"
)

// SizeCacheKey builds the optimizer's cache key (spec §3 CacheEntry,
// Open Question (a)): content class, source/target language, and a
// hash of the probe text's first N characters.
func SizeCacheKey(contentClass core.ContentClass, sourceLang, targetLang, probeText string) string {
	runes := []rune(probeText)
	n := 200
	if len(runes) < n {
		n = len(runes)
	}
	sum := sha256.Sum256([]byte(string(runes[:n])))
	return string(contentClass) + "|" + sourceLang + "|" + targetLang + "|" + hex.EncodeToString(sum[:8])
}

// SizeCache stores optimal chunk-size decisions (C9's consultation
// target) with a default 7-day TTL (spec §6 cache.size_ttl_days).
type SizeCache struct {
	backing Cache
	ttl     time.Duration
}

// NewSizeCache wraps backing with the default 7-day TTL used for
// optimal-chunk-size entries unless ttl is overridden (ttl <= 0 uses
// the default).
func NewSizeCache(backing Cache, ttl time.Duration) *SizeCache {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &SizeCache{backing: backing, ttl: ttl}
}

// Get returns the cached CacheEntry for key, if present and unexpired.
func (c *SizeCache) Get(key string) (core.CacheEntry, bool) {
	raw, ok := c.backing.Get(key)
	if !ok {
		return core.CacheEntry{}, false
	}
	var e core.CacheEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return core.CacheEntry{}, false
	}
	return e, true
}

// Put stores a CacheEntry under key, stamping StoredAt and bumping
// Hits from any prior entry.
func (c *SizeCache) Put(key string, optimalChunkSize int, qualityAtSize float64) {
	hits := 0
	if prev, ok := c.Get(key); ok {
		hits = prev.Hits + 1
	}
	e := core.CacheEntry{
		OptimalChunkSize: optimalChunkSize,
		QualityAtSize:    qualityAtSize,
		StoredAt:         time.Now(),
		Hits:             hits,
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	c.backing.Put(key, raw, c.ttl)
}

// Invalidate removes key.
func (c *SizeCache) Invalidate(key string) {
	c.backing.Invalidate(key)
}

// Stats delegates to the backing cache.
func (c *SizeCache) Stats() Stats {
	return c.backing.Stats()
}
