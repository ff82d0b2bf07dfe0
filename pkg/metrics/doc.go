// Package metrics provides the in-process observability core: a static
// registry of metric definitions and a bounded, thread-safe time-series
// store for numeric observations.
//
// The store is intentionally volatile. Samples live in fixed-capacity
// ring buffers (default 1000 per metric), are evicted FIFO on overflow,
// and are additionally pruned by an age-based sweep. Nothing survives a
// process restart.
//
// # Basic Usage
//
//	store := metrics.NewStore()
//
//	store.MustRegister(metrics.Definition{
//		Name:    "leads_created_total",
//		Kind:    metrics.KindCounter,
//		Unit:    "leads",
//		TagKeys: []string{"city"},
//	})
//
//	store.Increment("leads_created_total", 1, metrics.Tags{"city": "Moscow"})
//
//	stats := store.Statistics("leads_created_total", metrics.QueryOptions{
//		Tags: metrics.Tags{"city": "Moscow"},
//	})
//
// # Timing Operations
//
//	timer := store.StartTimer("report_build_seconds", nil)
//	defer timer.Stop()
//
// Stop is idempotent, so exactly one duration sample is recorded no
// matter how the surrounding function exits.
//
// # Concurrency
//
// Each series carries its own mutex. Concurrent writers to one metric
// serialize on that series; writers to unrelated metrics never contend.
// The sweep takes series locks one at a time, so it cannot stall the
// whole store.
//
// # Metrics
//
// The store exports Prometheus self-telemetry:
//
//   - obs_samples_recorded_total{metric} - Samples appended
//   - obs_series_evictions_total{metric} - Samples evicted by capacity
//   - obs_samples_swept_total - Samples removed by age sweeps
//   - obs_metric_autoregistered_total - Records against unknown names
//   - obs_sweep_duration_seconds - Sweep duration
package metrics
