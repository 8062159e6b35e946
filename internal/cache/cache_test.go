package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/meriley/lingua-nexus/internal/cache"
	"github.com/meriley/lingua-nexus/internal/core"
)

func TestLRU_GetMiss(t *testing.T) {
	c := cache.NewLRU(10)
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}
	stats := c.Stats()
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss recorded, got %d", stats.Misses)
	}
}

func TestLRU_PutThenGet(t *testing.T) {
	c := cache.NewLRU(10)
	c.Put("k", []byte("v"), time.Minute)
	v, ok := c.Get("k")
	if !ok || string(v) != "v" {
		t.Fatalf("expected hit with value %q, got ok=%v value=%q", "v", ok, v)
	}
	stats := c.Stats()
	if stats.Hits != 1 || stats.Size != 1 {
		t.Errorf("expected 1 hit, size 1; got %+v", stats)
	}
}

func TestLRU_TTLExpiry(t *testing.T) {
	c := cache.NewLRU(10)
	c.Put("k", []byte("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected expired entry to be evicted on read")
	}
	// Expired entry should no longer count toward size.
	if stats := c.Stats(); stats.Size != 0 {
		t.Errorf("expected expired entry evicted from size, got %+v", stats)
	}
}

func TestLRU_ZeroTTLNeverExpires(t *testing.T) {
	c := cache.NewLRU(10)
	c.Put("k", []byte("v"), 0)
	time.Sleep(2 * time.Millisecond)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected zero-ttl entry to persist")
	}
}

func TestLRU_LastWriteWins(t *testing.T) {
	c := cache.NewLRU(10)
	c.Put("k", []byte("first"), time.Minute)
	c.Put("k", []byte("second"), time.Minute)
	v, ok := c.Get("k")
	if !ok || string(v) != "second" {
		t.Fatalf("expected last write to win, got ok=%v value=%q", ok, v)
	}
}

func TestLRU_Invalidate(t *testing.T) {
	c := cache.NewLRU(10)
	c.Put("k", []byte("v"), time.Minute)
	c.Invalidate("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected invalidated key to miss")
	}
}

func TestLRU_DefaultMaxEntries(t *testing.T) {
	c := cache.NewLRU(0)
	c.Put("k", []byte("v"), time.Minute)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected default-sized cache to accept writes")
	}
}

func TestLRU_ConcurrentAccess(t *testing.T) {
	c := cache.NewLRU(100)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c.Put("key", []byte("v"), time.Minute)
		}(i)
		go func(i int) {
			defer wg.Done()
			c.Get("key")
		}(i)
	}
	wg.Wait()
}

func TestSizeCache_PutThenGet(t *testing.T) {
	sc := cache.NewSizeCache(cache.NewLRU(10), time.Hour)
	key := cache.SizeCacheKey(core.ContentProse, "en", "es", "some probe text")
	sc.Put(key, 480, 0.87)

	e, ok := sc.Get(key)
	if !ok {
		t.Fatal("expected hit")
	}
	if e.OptimalChunkSize != 480 || e.QualityAtSize != 0.87 {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.StoredAt.IsZero() {
		t.Error("expected StoredAt to be stamped")
	}
}

func TestSizeCache_HitsIncrementOnRepeatedPut(t *testing.T) {
	sc := cache.NewSizeCache(cache.NewLRU(10), time.Hour)
	key := cache.SizeCacheKey(core.ContentTechnical, "en", "fr", "probe")
	sc.Put(key, 100, 0.5)
	sc.Put(key, 200, 0.6)

	e, ok := sc.Get(key)
	if !ok {
		t.Fatal("expected hit")
	}
	if e.Hits != 1 {
		t.Errorf("expected hits to have incremented to 1, got %d", e.Hits)
	}
	if e.OptimalChunkSize != 200 {
		t.Errorf("expected latest put to win, got %d", e.OptimalChunkSize)
	}
}

func TestSizeCacheKey_StableAndDistinguishing(t *testing.T) {
	a := cache.SizeCacheKey(core.ContentProse, "en", "es", "hello world")
	b := cache.SizeCacheKey(core.ContentProse, "en", "es", "hello world")
	if a != b {
		t.Fatal("expected deterministic key for identical inputs")
	}
	c2 := cache.SizeCacheKey(core.ContentDialog, "en", "es", "hello world")
	if a == c2 {
		t.Fatal("expected content class to distinguish keys")
	}
}

func TestSizeCache_MissReturnsZeroValue(t *testing.T) {
	sc := cache.NewSizeCache(cache.NewLRU(10), time.Hour)
	if _, ok := sc.Get("nope"); ok {
		t.Fatal("expected miss")
	}
}
