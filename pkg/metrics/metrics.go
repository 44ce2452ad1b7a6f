package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache lookup results.
const (
	ResultHit     = "hit"
	ResultMiss    = "miss"
	ResultCorrupt = "corrupt"
	ResultError   = "error"
)

var (
	// CacheLookups counts cache reads by entity type, view and result (hit|miss|corrupt|error).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_cache_lookups_total",
			Help: "Total number of cache lookups performed by the read path",
		},
		[]string{"entity", "view", "result"},
	)

	// CacheDegraded counts cache operations that failed and were absorbed (get|set).
	CacheDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_cache_degraded_total",
			Help: "Cache operations that failed and fell back to the primary store",
		},
		[]string{"operation"},
	)

	// CacheRefreshes counts write-through refreshes after counter mutations by result (success|failure|evicted).
	CacheRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_cache_refreshes_total",
			Help: "Write-through cache refreshes issued after counter updates",
		},
		[]string{"entity", "view", "result"},
	)

	// CounterIncrements counts atomic counter updates by field and result.
	CounterIncrements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_counter_increments_total",
			Help: "Atomic counter increments issued against the primary store",
		},
		[]string{"entity", "field", "result"},
	)

	// StoreLatency measures primary store calls.
	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "social_store_latency_seconds",
			Help:    "Primary store operation latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "social_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// MaintenanceRuns counts background maintenance job executions by result.
	MaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_maintenance_runs_total",
			Help: "Background maintenance job executions",
		},
		[]string{"job", "result"},
	)
)
