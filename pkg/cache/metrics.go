package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks cache hits by layer (redis)
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obs_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"layer"}, // "redis"
	)

	// cacheMisses tracks cache misses
	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "obs_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// cacheErrors tracks absorbed backend errors by operation
	cacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obs_cache_errors_total",
			Help: "Total number of cache backend errors absorbed by the client",
		},
		[]string{"operation"}, // "get", "set", "delete", "exists", "flush"
	)

	// cacheRoundtrip tracks backend call duration by operation
	cacheRoundtrip = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "obs_cache_roundtrip_seconds",
			Help:    "Duration of cache backend calls",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25},
		},
		[]string{"operation"},
	)
)
