package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/leadrocket/observability/pkg/cache"
	"github.com/leadrocket/observability/pkg/metrics"
)

// SourceOfRecord exposes the aggregate queries the business collector
// needs from the CRM database. The relational schema itself is an
// external collaborator; this interface is its seam.
type SourceOfRecord interface {
	// LeadCountsByStatus returns the current lead count per pipeline status.
	LeadCountsByStatus(ctx context.Context) (map[string]int64, error)

	// TransactionSumsByType returns the transaction amount sum per type.
	TransactionSumsByType(ctx context.Context) (map[string]float64, error)

	// ConversionRate returns the rolling lead-to-deal conversion rate
	// as a percentage.
	ConversionRate(ctx context.Context) (float64, error)
}

// BusinessAggregates is the snapshot the collector publishes to the
// cache for dashboard consumers.
type BusinessAggregates struct {
	LeadsByStatus  map[string]int64   `json:"leads_by_status"`
	TransactionSum map[string]float64 `json:"transaction_sum"`
	ConversionRate float64            `json:"conversion_rate"`
	CollectedAt    time.Time          `json:"collected_at"`
}

// BusinessCollector records business aggregates as gauge samples and
// publishes the combined snapshot to the cache.
type BusinessCollector struct {
	source SourceOfRecord
	store  *metrics.Store
	cache  *cache.Client // optional; nil disables snapshot publishing
	ttl    time.Duration
	logger zerolog.Logger
}

// NewBusinessCollector creates a business collector. The cache client
// may be nil, in which case only store samples are recorded.
func NewBusinessCollector(source SourceOfRecord, store *metrics.Store, cacheClient *cache.Client) *BusinessCollector {
	return &BusinessCollector{
		source: source,
		store:  store,
		cache:  cacheClient,
		ttl:    5 * time.Minute,
		logger: log.With().Str("component", "business-collector").Logger(),
	}
}

// Job wraps the collector as a scheduler job.
func (c *BusinessCollector) Job(interval time.Duration) Job {
	return Job{Name: "business", Interval: interval, Run: c.Collect}
}

// Collect runs one aggregation cycle. Each aggregate is queried and
// recorded independently; the first failure does not suppress the rest.
func (c *BusinessCollector) Collect(ctx context.Context) error {
	timer := c.store.StartTimer(MetricCollectorCycle, metrics.Tags{"job": "business"})
	defer timer.Stop()

	var errs []error
	snapshot := BusinessAggregates{CollectedAt: time.Now()}

	counts, err := c.source.LeadCountsByStatus(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("lead counts: %w", err))
	} else {
		snapshot.LeadsByStatus = counts
		for status, count := range counts {
			if err := c.store.SetGauge(MetricLeadsByStatus, float64(count), metrics.Tags{"status": status}); err != nil {
				errs = append(errs, err)
			}
		}
	}

	sums, err := c.source.TransactionSumsByType(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("transaction sums: %w", err))
	} else {
		snapshot.TransactionSum = sums
		for txType, sum := range sums {
			if err := c.store.SetGauge(MetricTransactionSum, sum, metrics.Tags{"type": txType}); err != nil {
				errs = append(errs, err)
			}
		}
	}

	rate, err := c.source.ConversionRate(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("conversion rate: %w", err))
	} else {
		snapshot.ConversionRate = rate
		if err := c.store.SetGauge(MetricConversionRate, rate, nil); err != nil {
			errs = append(errs, err)
		}
	}

	// Publish the snapshot for dashboards; cache failures stay soft.
	if c.cache != nil && len(errs) == 0 {
		if err := c.cache.SetJSON(ctx, CacheKeyBusinessAggregates, snapshot, c.ttl); err != nil {
			c.logger.Debug().Msg("Business aggregates not cached")
		}
	}

	return errors.Join(errs...)
}
