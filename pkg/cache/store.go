package cache

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Producer computes a value on a cache miss. Producers may perform remote
// calls, including paginated ones. Producer errors propagate unchanged to
// the caller and are never cached.
type Producer func(ctx context.Context) (any, error)

// Options controls a single GetOrFetch call.
type Options struct {
	// TTL is the time-to-live for a freshly stored entry. Zero selects the
	// store's default TTL; a negative TTL stores an entry that is already
	// stale on the next read.
	TTL time.Duration

	// Bypass skips the store entirely (neither read nor write) for this
	// call. The producer is always invoked.
	Bypass bool
}

// Stats holds cache observability counters. Hits and misses are monotonic;
// they are not reset by Clear.
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Size   int    `json:"size"`
}

// Cache is the store surface consumed by cached accessors and the serial
// index builder.
type Cache interface {
	GetOrFetch(ctx context.Context, key string, producer Producer, opts Options) (any, error)
	Invalidate(ctx context.Context, key string) (bool, error)
	InvalidatePattern(ctx context.Context, pattern string) (int, error)
	Clear(ctx context.Context) (int, error)
	Enable()
	Disable()
	Enabled() bool
	Stats(ctx context.Context) (Stats, error)
}

// MemoryStore is an in-memory, namespaced, TTL-based key/value cache.
// It is the default Cache implementation.
type MemoryStore struct {
	namespace  string
	defaultTTL time.Duration
	logger     zerolog.Logger

	mu      sync.RWMutex
	entries map[string]*Entry

	enabled atomic.Bool
	hits    atomic.Uint64
	misses  atomic.Uint64

	group singleflight.Group
}

var _ Cache = (*MemoryStore)(nil)

// NewMemoryStore creates a memory-backed cache store. The namespace
// identifies this store in logs and metrics; defaultTTL applies when a
// GetOrFetch call does not specify one.
func NewMemoryStore(namespace string, defaultTTL time.Duration) *MemoryStore {
	s := &MemoryStore{
		namespace:  namespace,
		defaultTTL: defaultTTL,
		entries:    make(map[string]*Entry),
		logger:     log.With().Str("component", "cache").Str("namespace", namespace).Logger(),
	}
	s.enabled.Store(true)
	return s
}

// GetOrFetch returns the cached value for key if present and unexpired,
// otherwise invokes the producer and stores its result.
//
// When the store is disabled or opts.Bypass is set, the producer is always
// invoked and the store is neither read nor written. Concurrent misses on
// the same key are coalesced: the producer runs at most once at a time per
// key, and waiters share its result (or its error).
func (s *MemoryStore) GetOrFetch(ctx context.Context, key string, producer Producer, opts Options) (any, error) {
	if opts.Bypass || !s.enabled.Load() {
		return producer(ctx)
	}

	if value, ok := s.lookup(key); ok {
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
		// Another caller may have populated the key while we waited.
		if value, ok := s.lookup(key); ok {
			return value, nil
		}

		value, err := producer(ctx)
		if err != nil {
			return nil, err
		}

		s.put(key, value, ttl)
		s.logger.Debug().Str("cache_key", key).Dur("ttl", ttl).Msg("Cached value")
		return value, nil
	})
	return value, err
}

// lookup returns the unexpired value for key. Stale entries are evicted on
// observation; there is no background sweep.
func (s *MemoryStore) lookup(key string) (any, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if entry.IsExpired() {
		s.mu.Lock()
		// Re-check under the write lock; a refresh may have replaced it.
		if current, ok := s.entries[key]; ok && current.IsExpired() {
			delete(s.entries, key)
			CacheEvictions.WithLabelValues(s.namespace).Inc()
			CacheEntries.WithLabelValues(s.namespace).Set(float64(len(s.entries)))
		}
		s.mu.Unlock()
		return nil, false
	}

	return entry.Value, true
}

func (s *MemoryStore) put(key string, value any, ttl time.Duration) {
	now := time.Now()
	s.mu.Lock()
	s.entries[key] = &Entry{
		Value:    value,
		Expires:  now.Add(ttl),
		CachedAt: now,
	}
	CacheEntries.WithLabelValues(s.namespace).Set(float64(len(s.entries)))
	s.mu.Unlock()
}

// Invalidate removes a single entry. It reports whether the entry was
// present.
func (s *MemoryStore) Invalidate(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
		CacheInvalidations.WithLabelValues(s.namespace).Inc()
		CacheEntries.WithLabelValues(s.namespace).Set(float64(len(s.entries)))
	}
	return ok, nil
}

// InvalidatePattern removes all entries whose key matches the given regular
// expression and returns the number removed. Invalidators use anchored
// prefixes such as "^products" to purge a whole resource family.
func (s *MemoryStore) InvalidatePattern(_ context.Context, pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("compile invalidation pattern %q: %w", pattern, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.entries {
		if re.MatchString(key) {
			delete(s.entries, key)
			removed++
		}
	}
	if removed > 0 {
		CacheInvalidations.WithLabelValues(s.namespace).Add(float64(removed))
		CacheEntries.WithLabelValues(s.namespace).Set(float64(len(s.entries)))
		s.logger.Debug().Str("pattern", pattern).Int("removed", removed).Msg("Invalidated entries")
	}
	return removed, nil
}

// Clear removes all entries and returns the number removed. Hit and miss
// counters are intentionally left untouched.
func (s *MemoryStore) Clear(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.entries)
	s.entries = make(map[string]*Entry)
	if removed > 0 {
		CacheInvalidations.WithLabelValues(s.namespace).Add(float64(removed))
	}
	CacheEntries.WithLabelValues(s.namespace).Set(0)
	return removed, nil
}

// Enable turns the store back on after a Disable.
func (s *MemoryStore) Enable() {
	s.enabled.Store(true)
}

// Disable makes all subsequent GetOrFetch calls bypass storage, both read
// and write, until Enable is called. Callers that need a consistency window
// (a read-modify-write needing a fresh value) disable the store and defer
// Enable so it is restored even when the intervening call fails.
func (s *MemoryStore) Disable() {
	s.enabled.Store(false)
}

// Enabled reports whether the store currently serves and populates entries.
func (s *MemoryStore) Enabled() bool {
	return s.enabled.Load()
}

// Stats returns the current cache counters.
func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	size := len(s.entries)
	s.mu.RUnlock()

	return Stats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
		Size:   size,
	}, nil
}
