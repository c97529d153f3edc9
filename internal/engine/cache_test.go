package engine

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestCacheKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		k1 := CacheKey("meta", "dQw4w9WgXcQ")
		k2 := CacheKey("meta", "dQw4w9WgXcQ")
		if k1 != k2 {
			t.Errorf("CacheKey not deterministic: %q != %q", k1, k2)
		}
	})

	t.Run("different inputs differ", func(t *testing.T) {
		k1 := CacheKey("meta", "aaaaaaaaaaa")
		k2 := CacheKey("meta", "bbbbbbbbbbb")
		if k1 == k2 {
			t.Errorf("different inputs produced same key: %q", k1)
		}
	})

	t.Run("has prefix", func(t *testing.T) {
		k := CacheKey("test")
		if k[:3] != "hv:" {
			t.Errorf("expected hv: prefix, got %q", k[:3])
		}
	})
}

func TestCacheGetSet(t *testing.T) {
	// Init minimal cache (no Redis)
	InitCache("", 1*time.Minute, 100, 5*time.Minute)

	ctx := context.Background()
	key := CacheKey("test", "round-trip")

	if _, ok := CacheLoadJSON[VideoMetadata](ctx, key); ok {
		t.Error("expected cache miss on empty cache")
	}

	CacheStoreJSON(ctx, key, VideoMetadata{VideoID: "abcdefghijk", Title: "hello"})

	got, ok := CacheLoadJSON[VideoMetadata](ctx, key)
	if !ok {
		t.Fatal("expected cache hit after set")
	}
	if got.Title != "hello" {
		t.Errorf("got title %q, want %q", got.Title, "hello")
	}
}

func TestMetadataCache(t *testing.T) {
	InitCache("", 1*time.Minute, 100, 5*time.Minute)
	ctx := context.Background()
	var mc MetadataCache

	if _, ok := mc.Load(ctx, "abcdefghijk"); ok {
		t.Fatal("expected miss")
	}
	mc.Store(ctx, VideoMetadata{VideoID: "abcdefghijk", Tags: []string{"go"}})
	got, ok := mc.Load(ctx, "abcdefghijk")
	if !ok || len(got.Tags) != 1 || got.Tags[0] != "go" {
		t.Errorf("Load = %+v, %v", got, ok)
	}
}

func TestCacheExpiration(t *testing.T) {
	// Init with very short TTL
	InitCache("", 1*time.Millisecond, 100, 5*time.Minute)

	ctx := context.Background()
	key := CacheKey("test", "expiry")

	CacheSet(ctx, key, []byte("temp"))
	time.Sleep(5 * time.Millisecond)

	_, ok := CacheGet(ctx, key)
	if ok {
		t.Error("expected cache miss after TTL expiry")
	}
}

func TestCacheEviction(t *testing.T) {
	// maxEntries=3
	InitCache("", 1*time.Minute, 3, 5*time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		key := CacheKey("evict", fmt.Sprintf("item-%d", i))
		CacheSet(ctx, key, []byte(fmt.Sprintf("v%d", i)))
	}

	count := 0
	metaCache.mem.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count > 3 {
		t.Errorf("expected at most 3 entries after eviction, got %d", count)
	}
	if _, ok := CacheGet(ctx, CacheKey("evict", "item-4")); !ok {
		t.Error("newest entry was evicted")
	}
	if _, ok := CacheGet(ctx, CacheKey("evict", "item-0")); ok {
		t.Error("oldest entry survived eviction")
	}
}

func TestMetadataCacheMissing(t *testing.T) {
	InitCache("", 1*time.Minute, 100, 5*time.Minute)
	ctx := context.Background()
	var mc MetadataCache

	if mc.LoadMissing(ctx, "zzzzzzzzzzz") {
		t.Fatal("expected no missing marker")
	}
	mc.StoreMissing(ctx, "zzzzzzzzzzz")
	if !mc.LoadMissing(ctx, "zzzzzzzzzzz") {
		t.Error("missing marker not remembered")
	}
	if _, ok := mc.Load(ctx, "zzzzzzzzzzz"); ok {
		t.Error("missing marker must not read as metadata")
	}
}

func TestCacheStats(t *testing.T) {
	InitCache("", 1*time.Minute, 100, 5*time.Minute)
	// Reset counters
	cacheHits.Store(0)
	cacheMisses.Store(0)

	ctx := context.Background()
	key := CacheKey("stats", "test")

	CacheGet(ctx, key)
	_, misses := CacheStats()
	if misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}

	CacheSet(ctx, key, []byte("x"))
	CacheGet(ctx, key)

	hits, misses := CacheStats()
	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
	if misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}
}
