package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "farmiq_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// MarketCacheRequests counts market price lookups by cache result (hit|miss).
	MarketCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmiq_market_cache_requests_total",
			Help: "Market price requests partitioned by cache result",
		},
		[]string{"result"},
	)

	// MarketUpstreamRequests counts upstream pricing API calls by outcome.
	MarketUpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmiq_market_upstream_requests_total",
			Help: "Calls to the upstream market pricing API",
		},
		[]string{"outcome"},
	)

	// MarketUpstreamLatency measures upstream pricing API latency.
	MarketUpstreamLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "farmiq_market_upstream_latency_seconds",
			Help:    "Upstream market pricing API latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		},
	)

	// CacheEntriesPurged counts stale cache entries removed by maintenance.
	CacheEntriesPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "farmiq_cache_entries_purged_total",
			Help: "Stale cache entries removed by the maintenance job",
		},
	)

	// MigrationRows counts rows processed by the migration pipeline by table and outcome (migrated|skipped).
	MigrationRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmiq_migration_rows_total",
			Help: "Rows processed by the data migration pipeline",
		},
		[]string{"table", "outcome"},
	)
)
