package httpcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// responseHits tracks replayed responses
	responseHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "obs_httpcache_hits_total",
			Help: "Total number of HTTP responses replayed from cache",
		},
	)

	// responseMisses tracks cacheable requests served downstream
	responseMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "obs_httpcache_misses_total",
			Help: "Total number of cacheable requests served by the downstream handler",
		},
	)

	// responseBypass tracks requests that skipped the cache entirely
	responseBypass = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obs_httpcache_bypass_total",
			Help: "Total number of requests that bypassed the response cache",
		},
		[]string{"reason"}, // "method", "path"
	)
)
