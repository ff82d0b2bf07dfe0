package collector

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/leadrocket/observability/pkg/cache"
	"github.com/leadrocket/observability/pkg/metrics"
)

// DefaultMaxSampleAge is how long samples live before the retention
// sweep removes them, independent of capacity eviction.
const DefaultMaxSampleAge = 24 * time.Hour

// RetentionCollector drives the store's age-based sweep and records
// cache health gauges.
type RetentionCollector struct {
	store  *metrics.Store
	cache  *cache.Client // optional
	maxAge time.Duration
	logger zerolog.Logger
}

// NewRetentionCollector creates a retention collector. maxAge <= 0
// falls back to DefaultMaxSampleAge; the cache client may be nil.
func NewRetentionCollector(store *metrics.Store, cacheClient *cache.Client, maxAge time.Duration) *RetentionCollector {
	if maxAge <= 0 {
		maxAge = DefaultMaxSampleAge
	}
	return &RetentionCollector{
		store:  store,
		cache:  cacheClient,
		maxAge: maxAge,
		logger: log.With().Str("component", "retention-collector").Logger(),
	}
}

// Job wraps the collector as a scheduler job.
func (c *RetentionCollector) Job(interval time.Duration) Job {
	return Job{Name: "retention", Interval: interval, Run: c.Collect}
}

// Collect sweeps aged samples and records cache health.
func (c *RetentionCollector) Collect(ctx context.Context) error {
	removed := c.store.Sweep(c.maxAge)
	if err := c.store.SetGauge(MetricSweptSamples, float64(removed), nil); err != nil {
		return err
	}

	if c.cache != nil {
		health := c.cache.Health()
		if err := c.store.SetGauge(MetricCacheHitRate, health.HitRate, nil); err != nil {
			return err
		}
		healthy := 0.0
		if health.Healthy {
			healthy = 1.0
		}
		if err := c.store.SetGauge(MetricCacheHealthy, healthy, nil); err != nil {
			return err
		}
	}

	return nil
}
