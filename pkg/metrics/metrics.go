// Package metrics provides the central Prometheus registry reference for
// inflow-cli. All metrics are defined in their respective packages (cache,
// gateway, ratelimit) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by inflow-cli.
// All metrics are automatically registered via promauto in their respective
// packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - inflow_cache_hits_total{namespace} (Counter): Cache hits
//   - inflow_cache_misses_total{namespace} (Counter): Cache misses
//   - inflow_cache_evictions_total{namespace} (Counter): Stale entries evicted at read time
//   - inflow_cache_invalidations_total{namespace} (Counter): Entries removed by invalidation or clear
//   - inflow_cache_entries{namespace} (Gauge): Current entry count
//
// Gateway Metrics (pkg/gateway):
//   - inflow_requests_total{operation, status} (Counter): Remote operations by name and status
//   - inflow_request_duration_seconds{operation} (Histogram): Operation duration
//   - inflow_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, operation)
//
// Retry Metrics (pkg/gateway):
//   - inflow_retries_total{error_class} (Counter): Retry attempts by error class
//   - inflow_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - inflow_retry_exhausted_total{error_class} (Counter): Operations that exhausted max retries
//
// Rate Limit Metrics (pkg/ratelimit):
//   - inflow_rate_limit_remaining (Gauge): Requests remaining in the current window
//   - inflow_rate_limit_blocks_total (Counter): Requests blocked on an exhausted quota
//   - inflow_rate_limit_throttles_total (Counter): Requests throttled near the quota
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(inflow_cache_hits_total[5m])) /
//   (sum(rate(inflow_cache_hits_total[5m])) + sum(rate(inflow_cache_misses_total[5m])))
//
//   # Operation Error Rate
//   rate(inflow_errors_total[5m])
//
//   # P95 Operation Latency
//   histogram_quantile(0.95, rate(inflow_request_duration_seconds_bucket[5m]))
