// Package collector provides timer-driven background jobs that compute
// derived aggregates and push them into the time-series store and the
// cache client.
//
// Three collectors cover the CRM's needs:
//
//   - BusinessCollector aggregates the system of record (lead counts by
//     status, transaction sums by type, conversion rate).
//   - PerformanceCollector samples process/host resources via gopsutil.
//   - RetentionCollector drives the store's age-based sweep and records
//     cache health.
//
// The Scheduler runs each job on its own interval with an injected
// cancellation context. A failing or panicking cycle is logged and
// skipped; it never crashes the scheduler or blocks later cycles.
package collector
