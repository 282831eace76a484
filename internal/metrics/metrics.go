// Package metrics declares the Prometheus collectors of the nearby pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheRequests counts proximity cache lookups by result:
	// hit, miss, error, bypass, skip_empty.
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapguide_proximity_cache_requests_total",
			Help: "Proximity cache lookups by result",
		},
		[]string{"result"},
	)

	CacheBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "snapguide_cache_breaker_state",
			Help: "Cache backend circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"backend"},
	)

	NearbyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snapguide_nearby_duration_seconds",
			Help:    "Latency of nearby guide queries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	// LocationSearches counts finder calls by strategy.
	LocationSearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapguide_location_searches_total",
			Help: "Location finder calls by strategy",
		},
		[]string{"strategy"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapguide_store_errors_total",
			Help: "Failed store calls by operation",
		},
		[]string{"operation"},
	)

	DataAnomalies = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapguide_data_integrity_anomalies_total",
			Help: "Rows dropped because they referenced missing parents",
		},
	)
)
