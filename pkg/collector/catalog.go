package collector

import (
	"github.com/leadrocket/observability/pkg/metrics"
)

// Metric names recorded by the collectors.
const (
	// Business aggregates
	MetricLeadsByStatus  = "leads_by_status"
	MetricTransactionSum = "transactions_sum"
	MetricConversionRate = "lead_conversion_rate"

	// Host/process resources
	MetricCPUPercent    = "system_cpu_percent"
	MetricMemoryPercent = "system_memory_percent"
	MetricDiskPercent   = "system_disk_percent"

	// Retention and cache health
	MetricSweptSamples = "retention_swept_samples"
	MetricCacheHitRate = "cache_hit_rate"
	MetricCacheHealthy = "cache_healthy"

	// Collector self-timing
	MetricCollectorCycle = "collector_cycle_seconds"
)

// CacheKeyBusinessAggregates is where the business collector publishes
// its latest aggregate snapshot for dashboard consumers.
const CacheKeyBusinessAggregates = "crm:aggregates:business"

// Catalog returns the metric definitions the collectors record.
func Catalog() []metrics.Definition {
	return []metrics.Definition{
		{
			Name:        MetricLeadsByStatus,
			Kind:        metrics.KindGauge,
			Unit:        "leads",
			TagKeys:     []string{"status"},
			Description: "Lead count by pipeline status",
		},
		{
			Name:        MetricTransactionSum,
			Kind:        metrics.KindGauge,
			Unit:        "rubles",
			TagKeys:     []string{"type"},
			Description: "Transaction amount sum by type",
		},
		{
			Name:        MetricConversionRate,
			Kind:        metrics.KindGauge,
			Unit:        "percent",
			Description: "Rolling share of leads converted to deals",
		},
		{
			Name:        MetricCPUPercent,
			Kind:        metrics.KindGauge,
			Unit:        "percent",
			Description: "Host CPU utilization",
		},
		{
			Name:        MetricMemoryPercent,
			Kind:        metrics.KindGauge,
			Unit:        "percent",
			Description: "Host memory utilization",
		},
		{
			Name:        MetricDiskPercent,
			Kind:        metrics.KindGauge,
			Unit:        "percent",
			Description: "Root filesystem utilization",
		},
		{
			Name:        MetricSweptSamples,
			Kind:        metrics.KindGauge,
			Unit:        "samples",
			Description: "Samples removed by the latest retention sweep",
		},
		{
			Name:        MetricCacheHitRate,
			Kind:        metrics.KindGauge,
			Unit:        "ratio",
			Description: "Cache hit rate since process start",
		},
		{
			Name:        MetricCacheHealthy,
			Kind:        metrics.KindGauge,
			Description: "1 while the cache backend is healthy, 0 while degraded",
		},
		{
			Name:        MetricCollectorCycle,
			Kind:        metrics.KindTimer,
			Unit:        "seconds",
			TagKeys:     []string{"job"},
			Description: "Duration of collector cycles",
		},
	}
}
