package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/leadrocket/observability/pkg/metrics"
)

// PerformanceCollector samples host resource utilization (CPU, memory,
// disk) as gauge metrics.
type PerformanceCollector struct {
	store    *metrics.Store
	diskPath string
	logger   zerolog.Logger
}

// NewPerformanceCollector creates a performance collector sampling the
// root filesystem.
func NewPerformanceCollector(store *metrics.Store) *PerformanceCollector {
	return &PerformanceCollector{
		store:    store,
		diskPath: "/",
		logger:   log.With().Str("component", "performance-collector").Logger(),
	}
}

// Job wraps the collector as a scheduler job.
func (c *PerformanceCollector) Job(interval time.Duration) Job {
	return Job{Name: "performance", Interval: interval, Run: c.Collect}
}

// Collect samples CPU, memory, and disk. Probes are independent; a
// failing probe is reported but does not suppress the others.
func (c *PerformanceCollector) Collect(ctx context.Context) error {
	timer := c.store.StartTimer(MetricCollectorCycle, metrics.Tags{"job": "performance"})
	defer timer.Stop()

	var errs []error

	// Interval 0 measures utilization since the previous call instead
	// of blocking the cycle.
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		errs = append(errs, fmt.Errorf("cpu percent: %w", err))
	} else if len(percents) > 0 {
		if err := c.store.SetGauge(MetricCPUPercent, percents[0], nil); err != nil {
			errs = append(errs, err)
		}
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("virtual memory: %w", err))
	} else {
		if err := c.store.SetGauge(MetricMemoryPercent, vm.UsedPercent, nil); err != nil {
			errs = append(errs, err)
		}
	}

	usage, err := disk.UsageWithContext(ctx, c.diskPath)
	if err != nil {
		errs = append(errs, fmt.Errorf("disk usage %s: %w", c.diskPath, err))
	} else {
		if err := c.store.SetGauge(MetricDiskPercent, usage.UsedPercent, nil); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
