package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// samplesRecorded tracks samples appended per metric
	samplesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obs_samples_recorded_total",
			Help: "Total number of samples recorded into the time-series store",
		},
		[]string{"metric"},
	)

	// seriesEvictions tracks capacity evictions per metric
	seriesEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obs_series_evictions_total",
			Help: "Total number of samples evicted by series capacity limits",
		},
		[]string{"metric"},
	)

	// samplesSwept tracks samples removed by age-based sweeps
	samplesSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "obs_samples_swept_total",
			Help: "Total number of samples removed by age-based sweeps",
		},
	)

	// autoRegistered tracks records against unregistered metric names
	autoRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "obs_metric_autoregistered_total",
			Help: "Total number of metrics auto-registered on first record",
		},
	)

	// sweepDuration tracks sweep pass duration
	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "obs_sweep_duration_seconds",
			Help:    "Duration of age-based sweep passes",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	// recordRejections tracks samples rejected by validation
	recordRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obs_record_rejections_total",
			Help: "Total number of samples rejected by tag or definition validation",
		},
		[]string{"metric"},
	)
)
