// Package cache provides a fail-soft caching client with Redis backend.
//
// The external store is a soft dependency: every failure mode
// (connectivity, timeout, corrupt entry) degrades to a cache miss and is
// absorbed inside the client. Total Redis unavailability degrades the
// system to "always recompute", never to functional failure. This
// availability-over-hit-rate policy is deliberate; do not harden the
// backend into a required dependency.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	client := cache.NewClient(redisClient)
//
//	// Cache-aside
//	data, err := client.GetOrCompute(ctx, "crm:dashboard:summary", 5*time.Minute,
//		func(ctx context.Context) ([]byte, error) {
//			return buildDashboardSummary(ctx)
//		})
//
//	// Explicit invalidation on mutation paths
//	client.Delete(ctx, "crm:dashboard:summary")
//
// GetOrCompute has no cross-caller stampede protection: concurrent
// callers racing on a cold key may each invoke the compute function
// once. Computed values are idempotent, so this at-least-once behavior
// under contention is accepted.
//
// Every Redis call carries a bounded timeout (default 250ms) so an
// unavailable backend cannot stall request handling. A timeout is
// treated identically to a miss.
//
// # Metrics
//
// The client exports Prometheus metrics:
//
//   - obs_cache_hits_total{layer="redis"} - Cache hits
//   - obs_cache_misses_total - Cache misses
//   - obs_cache_errors_total{operation} - Absorbed backend errors
//   - obs_cache_roundtrip_seconds{operation} - Backend call duration
package cache
