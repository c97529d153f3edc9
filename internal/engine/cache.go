package engine

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Video metadata is cached in two tiers: an in-process map and, when
// REDIS_URL is set, Redis. Redis lets the server and CLI share lookups and
// survives restarts.
var metaCache *tieredCache

// CacheTTL controls how long metadata stays cached.
var CacheTTL = 6 * time.Hour

// missingTTL bounds how long a not-found answer is remembered. Videos go
// private and come back, so this is much shorter than CacheTTL.
const missingTTL = 15 * time.Minute

var (
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
)

type tieredCache struct {
	mem             sync.Map      // key → *memEntry
	size            atomic.Int64  // approximate entry count of mem
	rdb             *redis.Client // nil without Redis
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	stop            chan struct{}
}

type memEntry struct {
	data      []byte
	storedAt  time.Time
	expiresAt time.Time
}

func (e *memEntry) live(now time.Time) bool { return now.Before(e.expiresAt) }

// InitCache sets up the cache. Call after Init(). An empty redisURL keeps
// the cache in memory only; an unreachable Redis is logged and skipped.
func InitCache(redisURL string, ttl time.Duration, maxEntries int, cleanupInterval time.Duration) {
	c := &tieredCache{ttl: ttl, maxEntries: maxEntries, cleanupInterval: cleanupInterval, stop: make(chan struct{})}
	if redisURL != "" {
		c.rdb = dialRedis(redisURL)
	}

	if metaCache != nil {
		close(metaCache.stop)
	}
	metaCache = c
	CacheTTL = ttl
	slog.Debug("cache: ready", slog.Duration("ttl", ttl), slog.Bool("redis", c.rdb != nil), slog.Int("max_entries", maxEntries))

	go c.sweepLoop()
}

func dialRedis(redisURL string) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		slog.Warn("cache: bad redis URL, memory only", slog.Any("error", err))
		return nil
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("cache: redis unreachable, memory only", slog.String("addr", opts.Addr), slog.Any("error", err))
		_ = rdb.Close()
		return nil
	}
	slog.Info("cache: redis connected", slog.String("addr", opts.Addr))
	return rdb
}

// CacheKey builds a deterministic cache key from parts.
func CacheKey(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("hv:%x", sum[:12])
}

// CacheGet reads memory first, then Redis. A Redis hit is copied into memory.
func CacheGet(ctx context.Context, key string) ([]byte, bool) {
	if metaCache == nil {
		cacheMisses.Add(1)
		return nil, false
	}
	data, ok := metaCache.get(ctx, key)
	if ok {
		cacheHits.Add(1)
	} else {
		cacheMisses.Add(1)
	}
	return data, ok
}

// CacheSet stores data in both tiers with the default TTL.
func CacheSet(ctx context.Context, key string, data []byte) {
	if metaCache == nil {
		return
	}
	metaCache.set(ctx, key, data, metaCache.ttl)
}

// CacheLoadJSON decodes a cached value of type T. Decode errors count as
// a miss.
func CacheLoadJSON[T any](ctx context.Context, key string) (T, bool) {
	var out T
	data, ok := CacheGet(ctx, key)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(data, &out); err != nil {
		slog.Debug("cache: undecodable entry", slog.String("key", key), slog.Any("error", err))
		var zero T
		return zero, false
	}
	return out, true
}

// CacheStoreJSON marshals v and stores it in the cache.
func CacheStoreJSON[T any](ctx context.Context, key string, v T) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	CacheSet(ctx, key, data)
}

// CacheStats returns current cache hit/miss counters.
func CacheStats() (hits, misses int64) {
	return cacheHits.Load(), cacheMisses.Load()
}

// MetadataCache adapts the engine cache to the orchestrator's cache port.
// It also remembers recent not-found answers so a batch that repeats a dead
// video does not spend quota on it twice.
type MetadataCache struct{}

func metadataKey(videoID string) string { return CacheKey("meta", videoID) }
func missingKey(videoID string) string  { return CacheKey("missing", videoID) }

// Load returns cached metadata for videoID.
func (MetadataCache) Load(ctx context.Context, videoID string) (VideoMetadata, bool) {
	return CacheLoadJSON[VideoMetadata](ctx, metadataKey(videoID))
}

// Store caches metadata under its video ID.
func (MetadataCache) Store(ctx context.Context, m VideoMetadata) {
	CacheStoreJSON(ctx, metadataKey(m.VideoID), m)
}

// LoadMissing reports whether videoID was recently reported as not found.
func (MetadataCache) LoadMissing(ctx context.Context, videoID string) bool {
	_, ok := CacheGet(ctx, missingKey(videoID))
	return ok
}

// StoreMissing remembers a not-found answer for missingTTL.
func (MetadataCache) StoreMissing(ctx context.Context, videoID string) {
	if metaCache == nil {
		return
	}
	ttl := missingTTL
	if metaCache.ttl < ttl {
		ttl = metaCache.ttl
	}
	metaCache.set(ctx, missingKey(videoID), []byte{1}, ttl)
}

func (c *tieredCache) get(ctx context.Context, key string) ([]byte, bool) {
	now := time.Now()
	if v, ok := c.mem.Load(key); ok {
		e := v.(*memEntry)
		if e.live(now) {
			return e.data, true
		}
		c.remove(key)
	}
	if c.rdb == nil {
		return nil, false
	}

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Debug("cache: redis get failed", slog.Any("error", err))
		}
		return nil, false
	}
	ttl := c.ttl
	if remaining, err := c.rdb.TTL(ctx, key).Result(); err == nil && remaining > 0 && remaining < ttl {
		ttl = remaining
	}
	c.put(key, data, now, ttl)
	return data, true
}

func (c *tieredCache) set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	c.put(key, data, time.Now(), ttl)
	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
			slog.Debug("cache: redis set failed", slog.Any("error", err))
		}
	}
}

func (c *tieredCache) put(key string, data []byte, now time.Time, ttl time.Duration) {
	if c.maxEntries > 0 && int(c.size.Load()) >= c.maxEntries {
		c.shrink(now)
	}
	e := &memEntry{data: data, storedAt: now, expiresAt: now.Add(ttl)}
	if _, loaded := c.mem.Swap(key, e); !loaded {
		c.size.Add(1)
	}
}

func (c *tieredCache) remove(key string) {
	if _, loaded := c.mem.LoadAndDelete(key); loaded {
		c.size.Add(-1)
	}
}

// shrink drops expired entries, then the oldest ones, until there is room
// for one more.
func (c *tieredCache) shrink(now time.Time) {
	c.sweep(now)
	for int(c.size.Load()) >= c.maxEntries {
		var (
			oldestKey any
			oldestAt  time.Time
		)
		c.mem.Range(func(k, v any) bool {
			e := v.(*memEntry)
			if oldestKey == nil || e.storedAt.Before(oldestAt) {
				oldestKey, oldestAt = k, e.storedAt
			}
			return true
		})
		if oldestKey == nil {
			return
		}
		c.remove(oldestKey.(string))
	}
}

func (c *tieredCache) sweep(now time.Time) {
	c.mem.Range(func(k, v any) bool {
		if !v.(*memEntry).live(now) {
			c.remove(k.(string))
		}
		return true
	})
}

func (c *tieredCache) sweepLoop() {
	interval := c.cleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.sweep(now)
		}
	}
}
