package metrics

import (
	"sync"
	"sync/atomic"
)

// MetricKey is a strongly typed metric identifier.
type MetricKey string

// Metric keys (centralized)
const (
	// Response cache
	CacheGetsTotal          MetricKey = "cache_gets_total"
	CacheHitsTotal          MetricKey = "cache_hits_total"
	CacheMissesTotal        MetricKey = "cache_misses_total"
	CacheStaleTotal         MetricKey = "cache_stale_total"
	CacheSetsTotal          MetricKey = "cache_sets_total"
	CacheInvalidationsTotal MetricKey = "cache_invalidations_total"
	CacheKeys               MetricKey = "cache_keys"
	CacheStorageErrorsTotal MetricKey = "cache_storage_errors_total"
	CacheLoadsTotal         MetricKey = "cache_loads_total"

	// TTL sweeper
	TTLCleanupRunsTotal MetricKey = "ttl_cleanup_runs_total"
	TTLKeysRemovedTotal MetricKey = "ttl_keys_removed_total"

	// Outbound HTTP
	FetchAttemptsTotal     MetricKey = "fetch_attempts_total"
	FetchRetriesTotal      MetricKey = "fetch_retries_total"
	FetchSuccessTotal      MetricKey = "fetch_success_total"
	FetchFailuresTotal     MetricKey = "fetch_failures_total"
	FetchClientErrorsTotal MetricKey = "fetch_client_errors_total"

	// Backend liveness
	BackendHealthy         MetricKey = "backend_healthy"
	BackendUnhealthy       MetricKey = "backend_unhealthy"
	HeartbeatRunsTotal     MetricKey = "heartbeat_runs_total"
	HeartbeatSuccessTotal  MetricKey = "heartbeat_success_total"
	HeartbeatFailuresTotal MetricKey = "heartbeat_failures_total"

	// Ledger
	LedgerRowsIgnoredTotal MetricKey = "ledger_rows_ignored_total"

	// Scheduled jobs
	JobRunsTotal     MetricKey = "job_runs_total"
	JobFailuresTotal MetricKey = "job_failures_total"
)

// Registry stores all metrics.
type Registry struct {
	mu       sync.RWMutex
	counters map[MetricKey]*int64
}

// NewRegistry creates a metrics registry.
func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[MetricKey]*int64),
	}
}

// Inc increments a metric by 1. A nil registry ignores the call.
func (r *Registry) Inc(key MetricKey) {
	r.Add(key, 1)
}

// Add increments a metric by delta.
func (r *Registry) Add(key MetricKey, delta int64) {
	if r == nil {
		return
	}
	atomic.AddInt64(r.counter(key), delta)
}

// Set overwrites a gauge-style metric.
func (r *Registry) Set(key MetricKey, value int64) {
	if r == nil {
		return
	}
	atomic.StoreInt64(r.counter(key), value)
}

// Get returns the current value of key, zero when it was never touched.
func (r *Registry) Get(key MetricKey) int64 {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	ptr, ok := r.counters[key]
	r.mu.RUnlock()
	if !ok {
		return 0
	}
	return atomic.LoadInt64(ptr)
}

func (r *Registry) counter(key MetricKey) *int64 {
	r.mu.RLock()
	ptr, ok := r.counters[key]
	r.mu.RUnlock()
	if ok {
		return ptr
	}

	// Slow path: metric not yet initialized
	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if ptr, ok = r.counters[key]; ok {
		return ptr
	}
	ptr = new(int64)
	r.counters[key] = ptr
	return ptr
}
