package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// RedisStore is a Redis-backed Cache implementation for sharing the cache
// between processes. Observable semantics match MemoryStore; expiry is
// delegated to Redis TTLs, so stale entries disappear without a lazy
// eviction pass. Hit and miss counters are process-local.
//
// Values are JSON-encoded for storage, so the round trip preserves structure
// (objects come back as map[string]any, numbers as float64).
type RedisStore struct {
	redis      *redis.Client
	namespace  string
	defaultTTL time.Duration
	logger     zerolog.Logger

	enabled atomic.Bool
	hits    atomic.Uint64
	misses  atomic.Uint64

	group singleflight.Group
}

var _ Cache = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed cache store. All keys are prefixed
// with the namespace so independent stores can share one Redis database.
func NewRedisStore(redisClient *redis.Client, namespace string, defaultTTL time.Duration) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	s := &RedisStore{
		redis:      redisClient,
		namespace:  namespace,
		defaultTTL: defaultTTL,
		logger:     log.With().Str("component", "cache").Str("namespace", namespace).Logger(),
	}
	s.enabled.Store(true)
	return s
}

func (s *RedisStore) storageKey(key string) string {
	return s.namespace + ":" + key
}

// GetOrFetch returns the cached value for key if present, otherwise invokes
// the producer and stores its result. See MemoryStore.GetOrFetch for the
// bypass and coalescing contract.
func (s *RedisStore) GetOrFetch(ctx context.Context, key string, producer Producer, opts Options) (any, error) {
	if opts.Bypass || !s.enabled.Load() {
		return producer(ctx)
	}

	if value, ok := s.lookup(ctx, key); ok {
		s.hits.Add(1)
		CacheHits.WithLabelValues(s.namespace).Inc()
		s.logger.Debug().Str("cache_key", key).Msg("Cache hit")
		return value, nil
	}

	s.misses.Add(1)
	CacheMisses.WithLabelValues(s.namespace).Inc()

	ttl := opts.TTL
	if ttl == 0 {
		ttl = s.defaultTTL
	}

	value, err, _ := s.group.Do(key, func() (any, error) {
		if value, ok := s.lookup(ctx, key); ok {
			return value, nil
		}

		value, err := producer(ctx)
		if err != nil {
			return nil, err
		}

		if err := s.put(ctx, key, value, ttl); err != nil {
			// A storage failure must not hide the produced value.
			s.logger.Warn().Err(err).Str("cache_key", key).Msg("Failed to cache value")
		}
		return value, nil
	})
	return value, err
}

func (s *RedisStore) lookup(ctx context.Context, key string) (any, bool) {
	data, err := s.redis.Get(ctx, s.storageKey(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Str("cache_key", key).Msg("Redis get failed")
		}
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		s.logger.Warn().Err(err).Str("cache_key", key).Msg("Invalid cache entry")
		return nil, false
	}
	if entry.IsExpired() {
		return nil, false
	}
	return entry.Value, true
}

func (s *RedisStore) put(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		// Already stale; Redis rejects non-positive TTLs and a reader would
		// never see the entry anyway.
		return nil
	}

	now := time.Now()
	entry := &Entry{
		Value:    value,
		Expires:  now.Add(ttl),
		CachedAt: now,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := s.redis.Set(ctx, s.storageKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate removes a single entry and reports whether it was present.
func (s *RedisStore) Invalidate(ctx context.Context, key string) (bool, error) {
	n, err := s.redis.Del(ctx, s.storageKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	if n > 0 {
		CacheInvalidations.WithLabelValues(s.namespace).Inc()
	}
	return n > 0, nil
}

// InvalidatePattern removes all entries whose logical key matches the given
// regular expression and returns the number removed.
func (s *RedisStore) InvalidatePattern(ctx context.Context, pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("compile invalidation pattern %q: %w", pattern, err)
	}

	keys, err := s.scanKeys(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, storageKey := range keys {
		logical := strings.TrimPrefix(storageKey, s.namespace+":")
		if !re.MatchString(logical) {
			continue
		}
		n, err := s.redis.Del(ctx, storageKey).Result()
		if err != nil {
			return removed, fmt.Errorf("redis del: %w", err)
		}
		removed += int(n)
	}
	if removed > 0 {
		CacheInvalidations.WithLabelValues(s.namespace).Add(float64(removed))
		s.logger.Debug().Str("pattern", pattern).Int("removed", removed).Msg("Invalidated entries")
	}
	return removed, nil
}

// Clear removes all entries in this store's namespace. Hit and miss
// counters are intentionally left untouched.
func (s *RedisStore) Clear(ctx context.Context) (int, error) {
	keys, err := s.scanKeys(ctx)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	n, err := s.redis.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis del: %w", err)
	}
	if n > 0 {
		CacheInvalidations.WithLabelValues(s.namespace).Add(float64(n))
	}
	return int(n), nil
}

// scanKeys returns every storage key belonging to this namespace.
func (s *RedisStore) scanKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.redis.Scan(ctx, 0, s.namespace+":*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}

// Enable turns the store back on after a Disable.
func (s *RedisStore) Enable() {
	s.enabled.Store(true)
}

// Disable makes all subsequent GetOrFetch calls bypass storage until Enable
// is called. The toggle is per-process; other processes sharing the Redis
// database are unaffected.
func (s *RedisStore) Disable() {
	s.enabled.Store(false)
}

// Enabled reports whether the store currently serves and populates entries.
func (s *RedisStore) Enabled() bool {
	return s.enabled.Load()
}

// Stats returns the current cache counters. Size is counted with a SCAN
// over the namespace.
func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	keys, err := s.scanKeys(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
		Size:   len(keys),
	}, nil
}
