package metrics

import (
	"sync"
	"time"
)

// DefaultCapacity is the per-series sample capacity when none is configured.
const DefaultCapacity = 1000

// Sample is one recorded observation.
type Sample struct {
	// Timestamp is when the sample was recorded.
	Timestamp time.Time `json:"timestamp"`

	// Value is the observed numeric value.
	Value float64 `json:"value"`

	// Tags are the sample's dimensions (e.g. {"city": "Moscow"}).
	Tags Tags `json:"tags,omitempty"`

	// Metadata carries optional free-form annotations, excluded from
	// filtering and statistics.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// matches reports whether the sample carries every tag in filter with
// an equal value (conjunctive match). An empty filter matches all.
func (s Sample) matches(filter Tags) bool {
	for key, want := range filter {
		if s.Tags[key] != want {
			return false
		}
	}
	return true
}

// QueryOptions narrows a query or statistics call.
type QueryOptions struct {
	// Since excludes samples recorded before this time. Zero means no bound.
	Since time.Time

	// Tags is a conjunctive tag filter. Empty means no filter.
	Tags Tags

	// Limit keeps only the most recent N matching samples. Zero means all.
	// Only applies to Query, not Statistics.
	Limit int
}

// Stats is a derived statistics snapshot over a queried sub-range.
// It is computed on demand and never persisted.
type Stats struct {
	Count   int     `json:"count"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Sum     float64 `json:"sum"`
	Average float64 `json:"average"`
}

// series is the bounded, arrival-ordered sample history for one metric.
// A fixed-size ring buffer keeps insertion O(1); once full, the oldest
// sample is overwritten regardless of age. Each series has its own lock
// so writers to unrelated metrics never contend.
type series struct {
	mu    sync.Mutex
	buf   []Sample
	head  int // index of the oldest sample
	count int
}

func newSeries(capacity int) *series {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &series{
		buf: make([]Sample, capacity),
	}
}

// append adds a sample, evicting the oldest when full.
// Returns true if an eviction happened.
func (s *series) append(sample Sample) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	capacity := len(s.buf)
	if s.count < capacity {
		s.buf[(s.head+s.count)%capacity] = sample
		s.count++
		return false
	}

	// Full: overwrite the oldest slot and advance head.
	s.buf[s.head] = sample
	s.head = (s.head + 1) % capacity
	return true
}

// latest returns the most recent sample.
func (s *series) latest() (Sample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == 0 {
		return Sample{}, false
	}
	return s.buf[(s.head+s.count-1)%len(s.buf)], true
}

// query returns matching samples oldest-first. With a positive limit,
// only the most recent limit matches are kept (still oldest-first).
func (s *series) query(opts QueryOptions) []Sample {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Sample
	capacity := len(s.buf)
	for i := 0; i < s.count; i++ {
		sample := s.buf[(s.head+i)%capacity]
		if !opts.Since.IsZero() && sample.Timestamp.Before(opts.Since) {
			continue
		}
		if !sample.matches(opts.Tags) {
			continue
		}
		out = append(out, sample)
	}

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[len(out)-opts.Limit:]
	}
	return out
}

// statistics computes a single-pass summary over matching samples.
// An empty match yields a zero-count snapshot, never an error.
func (s *series) statistics(opts QueryOptions) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats Stats
	capacity := len(s.buf)
	for i := 0; i < s.count; i++ {
		sample := s.buf[(s.head+i)%capacity]
		if !opts.Since.IsZero() && sample.Timestamp.Before(opts.Since) {
			continue
		}
		if !sample.matches(opts.Tags) {
			continue
		}
		if stats.Count == 0 || sample.Value < stats.Min {
			stats.Min = sample.Value
		}
		if stats.Count == 0 || sample.Value > stats.Max {
			stats.Max = sample.Value
		}
		stats.Sum += sample.Value
		stats.Count++
	}
	if stats.Count > 0 {
		stats.Average = stats.Sum / float64(stats.Count)
	}
	return stats
}

// sweep removes all samples older than cutoff and returns how many were
// removed. Samples are arrival-ordered, so old samples form a prefix and
// the critical section is a head advance plus slot clearing.
func (s *series) sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	capacity := len(s.buf)
	removed := 0
	for s.count > 0 {
		oldest := s.buf[s.head]
		if !oldest.Timestamp.Before(cutoff) {
			break
		}
		s.buf[s.head] = Sample{} // release tag map references
		s.head = (s.head + 1) % capacity
		s.count--
		removed++
	}
	return removed
}

// snapshot copies all samples oldest-first.
func (s *series) snapshot() []Sample {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Sample, s.count)
	capacity := len(s.buf)
	for i := 0; i < s.count; i++ {
		out[i] = s.buf[(s.head+i)%capacity]
	}
	return out
}

// len returns the current sample count.
func (s *series) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
