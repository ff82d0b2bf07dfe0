package metrics

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Store records, retains, and summarizes numeric observations under
// concurrent access. All operations are in-memory and non-blocking
// beyond short per-series mutual exclusion.
type Store struct {
	registry *Registry
	capacity int
	now      func() time.Time
	logger   zerolog.Logger

	mu     sync.RWMutex
	series map[string]*series
}

// Option configures a Store.
type Option func(*Store)

// WithCapacity sets the per-series sample capacity (default 1000).
func WithCapacity(capacity int) Option {
	return func(s *Store) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}

// WithClock injects a time source. Used by tests to control timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates an empty store with its own registry.
func NewStore(opts ...Option) *Store {
	s := &Store{
		registry: NewRegistry(),
		capacity: DefaultCapacity,
		now:      time.Now,
		logger:   log.With().Str("component", "timeseries-store").Logger(),
		series:   make(map[string]*series),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the store's definition catalog.
func (s *Store) Registry() *Registry {
	return s.registry
}

// Register adds a metric definition. See Registry.Register.
func (s *Store) Register(def Definition) error {
	return s.registry.Register(def)
}

// MustRegister registers a definition and panics on error. Intended for
// the static catalog built at startup.
func (s *Store) MustRegister(defs ...Definition) {
	for _, def := range defs {
		if err := s.registry.Register(def); err != nil {
			panic(err)
		}
	}
}

// Record appends a sample with the current timestamp. Recording against
// an unregistered name auto-registers it as a Gauge with the sample's
// tag keys; a later explicit Register with a different kind still fails.
// Thread-safe; O(1) amortized; evicts the oldest sample on overflow.
func (s *Store) Record(name string, value float64, tags Tags, metadata map[string]string) error {
	def, ok := s.registry.Lookup(name)
	if !ok {
		def = s.autoRegister(name, tags)
	}

	if err := def.allowsTags(tags); err != nil {
		recordRejections.WithLabelValues(name).Inc()
		return err
	}

	sample := Sample{
		Timestamp: s.now(),
		Value:     value,
		Tags:      cloneTags(tags),
		Metadata:  metadata,
	}

	evicted := s.getOrCreateSeries(name).append(sample)
	samplesRecorded.WithLabelValues(name).Inc()
	if evicted {
		seriesEvictions.WithLabelValues(name).Inc()
	}
	return nil
}

// Increment records a counter increase (default amount 1 at call sites).
func (s *Store) Increment(name string, amount float64, tags Tags) error {
	return s.Record(name, amount, tags, nil)
}

// SetGauge records a point-in-time gauge value.
func (s *Store) SetGauge(name string, value float64, tags Tags) error {
	return s.Record(name, value, tags, nil)
}

// LatestValue returns the most recent value recorded for name.
func (s *Store) LatestValue(name string) (float64, bool) {
	s.mu.RLock()
	ser, ok := s.series[name]
	s.mu.RUnlock()
	if !ok {
		return 0, false
	}

	sample, ok := ser.latest()
	if !ok {
		return 0, false
	}
	return sample.Value, true
}

// Query returns matching samples for name, oldest-first. Unknown names
// and fully filtered-out ranges yield an empty result.
func (s *Store) Query(name string, opts QueryOptions) []Sample {
	s.mu.RLock()
	ser, ok := s.series[name]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	return ser.query(opts)
}

// Statistics computes a single-pass summary over matching samples.
// Empty or fully filtered-out ranges yield a zero-count snapshot.
func (s *Store) Statistics(name string, opts QueryOptions) Stats {
	s.mu.RLock()
	ser, ok := s.series[name]
	s.mu.RUnlock()
	if !ok {
		return Stats{}
	}
	return ser.statistics(opts)
}

// Sweep removes all samples older than maxAge across all series and
// returns the number removed. Each series is locked individually, so a
// sweep never stalls writers on unrelated metrics. Repeating a sweep
// with the same cutoff is a no-op.
func (s *Store) Sweep(maxAge time.Duration) int {
	start := s.now()
	cutoff := start.Add(-maxAge)

	s.mu.RLock()
	all := make([]*series, 0, len(s.series))
	for _, ser := range s.series {
		all = append(all, ser)
	}
	s.mu.RUnlock()

	removed := 0
	for _, ser := range all {
		removed += ser.sweep(cutoff)
	}

	if removed > 0 {
		samplesSwept.Add(float64(removed))
		s.logger.Info().
			Int("removed", removed).
			Dur("max_age", maxAge).
			Msg("Sweep removed aged samples")
	}
	sweepDuration.Observe(time.Since(start).Seconds())
	return removed
}

// SeriesExport is one metric's slice of the diagnostic export.
type SeriesExport struct {
	Definition Definition `json:"definition"`
	Samples    []Sample   `json:"samples"`
}

// Export captures a full diagnostic snapshot of all series. Each series
// is copied under its own lock; consistency across different metrics is
// best-effort, not a single atomic cut.
type Export struct {
	GeneratedAt time.Time               `json:"generated_at"`
	Series      map[string]SeriesExport `json:"series"`
}

// Export returns a full diagnostic snapshot.
func (s *Store) Export() Export {
	s.mu.RLock()
	names := make([]string, 0, len(s.series))
	refs := make(map[string]*series, len(s.series))
	for name, ser := range s.series {
		names = append(names, name)
		refs[name] = ser
	}
	s.mu.RUnlock()

	export := Export{
		GeneratedAt: s.now(),
		Series:      make(map[string]SeriesExport, len(names)),
	}
	for _, name := range names {
		def, _ := s.registry.Lookup(name)
		export.Series[name] = SeriesExport{
			Definition: def,
			Samples:    refs[name].snapshot(),
		}
	}
	return export
}

// SeriesLen returns the current sample count for name. Used by tests
// and diagnostics.
func (s *Store) SeriesLen(name string) int {
	s.mu.RLock()
	ser, ok := s.series[name]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	return ser.len()
}

// autoRegister pins down the policy for unregistered names: register as
// a Gauge with the sample's tag keys rather than dropping the sample.
func (s *Store) autoRegister(name string, tags Tags) Definition {
	def := Definition{
		Name:        name,
		Kind:        KindGauge,
		TagKeys:     tagKeys(tags),
		Description: "auto-registered on first record",
	}
	if err := s.registry.Register(def); err != nil {
		// Lost a registration race; the concurrent definition wins.
		if existing, ok := s.registry.Lookup(name); ok {
			return existing
		}
		return def
	}
	autoRegistered.Inc()
	s.logger.Warn().Str("metric", name).Msg("Auto-registered unknown metric as gauge")
	return def
}

func (s *Store) getOrCreateSeries(name string) *series {
	s.mu.RLock()
	ser, ok := s.series[name]
	s.mu.RUnlock()
	if ok {
		return ser
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ser, ok = s.series[name]; ok {
		return ser
	}
	ser = newSeries(s.capacity)
	s.series[name] = ser
	return ser
}

func cloneTags(tags Tags) Tags {
	if len(tags) == 0 {
		return nil
	}
	out := make(Tags, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}

func tagKeys(tags Tags) []string {
	if len(tags) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	return keys
}
