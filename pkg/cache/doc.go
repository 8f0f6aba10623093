// Package cache provides the namespaced TTL cache used in front of the
// remote inventory service.
//
// The cache stores arbitrary JSON-like values with per-entry expiry. Expiry
// is lazy: no background sweep exists, stale entries are dropped when a
// reader observes them. Mutating accessors purge whole resource families
// with pattern-based invalidation after a successful write.
//
// Two implementations of the Cache interface exist:
//
//   - MemoryStore: process-local map, the default backend
//   - RedisStore: Redis-backed store for sharing the cache between processes
//
// # Basic Usage
//
//	store := cache.NewMemoryStore("inventory", 15*time.Minute)
//
//	key := cache.Key("product", map[string]any{"id": "PRD-1"})
//
//	v, err := store.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
//		return gw.Invoke(ctx, "get_product", map[string]any{"id": "PRD-1"})
//	}, cache.Options{TTL: 5 * time.Minute})
//
// # Invalidation
//
//	// After a successful product write, purge every derived view.
//	n, err := store.InvalidatePattern(ctx, "^products")
//
// # Concurrency
//
// Concurrent misses on the same key are coalesced with singleflight so the
// producer runs at most once per key at a time. Sequential misses are not
// coalesced. Producer errors propagate unchanged and are never cached.
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - inflow_cache_hits_total{namespace} - Cache hits
//   - inflow_cache_misses_total{namespace} - Cache misses
//   - inflow_cache_evictions_total{namespace} - Lazy evictions of stale entries
//   - inflow_cache_invalidations_total{namespace} - Entries removed by invalidation
//   - inflow_cache_entries{namespace} - Current entry count
package cache
