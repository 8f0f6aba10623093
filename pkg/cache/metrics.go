package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by namespace
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inflow_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"namespace"},
	)

	// CacheMisses tracks cache misses by namespace
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inflow_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"namespace"},
	)

	// CacheEvictions tracks lazy evictions of stale entries
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inflow_cache_evictions_total",
			Help: "Total number of stale entries evicted at read time",
		},
		[]string{"namespace"},
	)

	// CacheInvalidations tracks entries removed by explicit invalidation
	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inflow_cache_invalidations_total",
			Help: "Total number of entries removed by invalidation or clear",
		},
		[]string{"namespace"},
	)

	// CacheEntries tracks the current entry count by namespace
	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inflow_cache_entries",
			Help: "Current number of cache entries",
		},
		[]string{"namespace"},
	)
)
