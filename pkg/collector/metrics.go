package collector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cycles tracks collector cycle outcomes by job
	cycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obs_collector_cycles_total",
			Help: "Total number of collector cycles by job and outcome",
		},
		[]string{"job", "status"}, // status: "ok", "error", "panic"
	)

	// cycleDuration tracks cycle duration by job
	cycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "obs_collector_cycle_duration_seconds",
			Help:    "Duration of collector cycles by job",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15},
		},
		[]string{"job"},
	)
)
