package cache

// Thresholds for cache health classification.
const (
	// ErrorShareDegraded marks the cache degraded when at least this
	// share of observed operations were absorbed backend errors.
	ErrorShareDegraded = 0.25

	// minObservations avoids flapping health on a handful of calls.
	minObservations = 10
)

// Health is a point-in-time snapshot of cache effectiveness. The cache
// is best-effort, so an unhealthy snapshot signals degraded hit rate,
// never functional failure.
type Health struct {
	// Hits is the number of cache hits since process start.
	Hits uint64 `json:"hits"`

	// Misses is the number of misses, including absorbed errors.
	Misses uint64 `json:"misses"`

	// Errors is the number of absorbed backend errors.
	Errors uint64 `json:"errors"`

	// HitRate is Hits / (Hits + Misses). Zero when nothing was observed.
	HitRate float64 `json:"hit_rate"`

	// Healthy is false while the backend error share indicates the
	// external store is unreachable or misbehaving.
	Healthy bool `json:"healthy"`
}

// Health returns the current hit/miss/error snapshot.
func (c *Client) Health() Health {
	h := Health{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Errors: c.errors.Load(),
	}

	total := h.Hits + h.Misses
	if total > 0 {
		h.HitRate = float64(h.Hits) / float64(total)
	}

	h.Healthy = total < minObservations ||
		float64(h.Errors) < ErrorShareDegraded*float64(total)
	return h
}
