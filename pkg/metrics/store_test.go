package metrics

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeClock is an adjustable time source for deterministic tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestStore_Record_FIFOEviction(t *testing.T) {
	store := NewStore(WithCapacity(5))
	store.MustRegister(Definition{Name: "m", Kind: KindGauge})

	for i := 0; i < 12; i++ {
		if err := store.SetGauge("m", float64(i), nil); err != nil {
			t.Fatalf("SetGauge failed: %v", err)
		}
	}

	if got := store.SeriesLen("m"); got != 5 {
		t.Fatalf("Series length = %d, want capacity 5", got)
	}

	// Exactly the 5 most recent values survive, in arrival order.
	samples := store.Query("m", QueryOptions{})
	want := []float64{7, 8, 9, 10, 11}
	if len(samples) != len(want) {
		t.Fatalf("Query returned %d samples, want %d", len(samples), len(want))
	}
	for i, w := range want {
		if samples[i].Value != w {
			t.Errorf("samples[%d].Value = %v, want %v", i, samples[i].Value, w)
		}
	}
}

func TestStore_Record_ConcurrentWriters(t *testing.T) {
	const capacity = 100
	const writers = 8
	const perWriter = 50 // 400 total, exceeds capacity

	store := NewStore(WithCapacity(capacity))
	store.MustRegister(Definition{Name: "m", Kind: KindCounter})

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if err := store.Increment("m", 1, nil); err != nil {
					t.Errorf("Increment failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	if got := store.SeriesLen("m"); got != capacity {
		t.Errorf("Series length = %d, want min(N, C) = %d", got, capacity)
	}

	stats := store.Statistics("m", QueryOptions{})
	if stats.Count != capacity {
		t.Errorf("Statistics count = %d, want %d", stats.Count, capacity)
	}
	if stats.Sum != float64(capacity) {
		t.Errorf("Statistics sum = %v, want %v (no duplicated or lost samples)", stats.Sum, capacity)
	}
}

func TestStore_Statistics_TagFilter(t *testing.T) {
	store := NewStore()
	store.MustRegister(Definition{
		Name:    "requests_created_total",
		Kind:    KindCounter,
		TagKeys: []string{"city"},
	})

	for i := 0; i < 5; i++ {
		if err := store.Increment("requests_created_total", 1, Tags{"city": "Moscow"}); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		if err := store.Increment("requests_created_total", 1, Tags{"city": "Kazan"}); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
	}

	moscow := store.Statistics("requests_created_total", QueryOptions{Tags: Tags{"city": "Moscow"}})
	if moscow.Count != 5 || moscow.Sum != 5 {
		t.Errorf("Moscow stats = {count:%d sum:%v}, want {count:5 sum:5}", moscow.Count, moscow.Sum)
	}

	all := store.Statistics("requests_created_total", QueryOptions{})
	if all.Count != 8 {
		t.Errorf("Unfiltered count = %d, want 8", all.Count)
	}
}

func TestStore_Statistics_EmptyRange(t *testing.T) {
	store := NewStore()
	store.MustRegister(Definition{Name: "m", Kind: KindGauge, TagKeys: []string{"city"}})

	// Unknown metric
	if stats := store.Statistics("nope", QueryOptions{}); stats.Count != 0 {
		t.Errorf("Unknown metric stats count = %d, want 0", stats.Count)
	}

	// Registered but never recorded
	if stats := store.Statistics("m", QueryOptions{}); stats.Count != 0 {
		t.Errorf("Cold metric stats count = %d, want 0", stats.Count)
	}

	// Fully filtered out
	if err := store.SetGauge("m", 1, Tags{"city": "Moscow"}); err != nil {
		t.Fatalf("SetGauge failed: %v", err)
	}
	stats := store.Statistics("m", QueryOptions{Tags: Tags{"city": "Samara"}})
	if stats.Count != 0 || stats.Sum != 0 || stats.Average != 0 {
		t.Errorf("Filtered-out stats = %+v, want zero snapshot", stats)
	}
}

func TestStore_Statistics_Values(t *testing.T) {
	store := NewStore()
	store.MustRegister(Definition{Name: "m", Kind: KindGauge})

	for _, v := range []float64{4, -2, 10, 0} {
		if err := store.SetGauge("m", v, nil); err != nil {
			t.Fatalf("SetGauge failed: %v", err)
		}
	}

	stats := store.Statistics("m", QueryOptions{})
	if stats.Count != 4 {
		t.Errorf("Count = %d, want 4", stats.Count)
	}
	if stats.Min != -2 {
		t.Errorf("Min = %v, want -2", stats.Min)
	}
	if stats.Max != 10 {
		t.Errorf("Max = %v, want 10", stats.Max)
	}
	if stats.Sum != 12 {
		t.Errorf("Sum = %v, want 12", stats.Sum)
	}
	if stats.Average != 3 {
		t.Errorf("Average = %v, want 3", stats.Average)
	}
}

func TestStore_Query_SinceAndLimit(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(WithClock(clock.Now))
	store.MustRegister(Definition{Name: "m", Kind: KindGauge})

	for i := 0; i < 6; i++ {
		if err := store.SetGauge("m", float64(i), nil); err != nil {
			t.Fatalf("SetGauge failed: %v", err)
		}
		clock.Advance(time.Minute)
	}

	// Samples at t0..t5; since t0+2.5m keeps values 3,4,5
	since := clock.Now().Add(-3*time.Minute - 30*time.Second)
	samples := store.Query("m", QueryOptions{Since: since})
	if len(samples) != 3 {
		t.Fatalf("Since query returned %d samples, want 3", len(samples))
	}
	if samples[0].Value != 3 {
		t.Errorf("First sample value = %v, want 3", samples[0].Value)
	}

	// Limit keeps the most recent matches, still oldest-first
	limited := store.Query("m", QueryOptions{Limit: 2})
	if len(limited) != 2 {
		t.Fatalf("Limited query returned %d samples, want 2", len(limited))
	}
	if limited[0].Value != 4 || limited[1].Value != 5 {
		t.Errorf("Limited values = [%v %v], want [4 5]", limited[0].Value, limited[1].Value)
	}
}

func TestStore_Sweep(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(WithClock(clock.Now))
	store.MustRegister(Definition{Name: "old", Kind: KindGauge})
	store.MustRegister(Definition{Name: "fresh", Kind: KindGauge})

	if err := store.SetGauge("old", 1, nil); err != nil {
		t.Fatalf("SetGauge failed: %v", err)
	}
	clock.Advance(25 * time.Hour)
	if err := store.SetGauge("fresh", 2, nil); err != nil {
		t.Fatalf("SetGauge failed: %v", err)
	}

	removed := store.Sweep(24 * time.Hour)
	if removed != 1 {
		t.Errorf("Sweep removed %d samples, want 1", removed)
	}
	if got := store.SeriesLen("old"); got != 0 {
		t.Errorf("Aged series length = %d, want 0", got)
	}
	if got := store.SeriesLen("fresh"); got != 1 {
		t.Errorf("Fresh series length = %d, want 1", got)
	}

	// Idempotent: same cutoff removes nothing further
	if removed := store.Sweep(24 * time.Hour); removed != 0 {
		t.Errorf("Repeated sweep removed %d samples, want 0", removed)
	}
}

func TestStore_Sweep_ThenRecord(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(WithClock(clock.Now))
	store.MustRegister(Definition{Name: "m", Kind: KindGauge})

	if err := store.SetGauge("m", 1, nil); err != nil {
		t.Fatalf("SetGauge failed: %v", err)
	}
	clock.Advance(2 * time.Hour)
	store.Sweep(time.Hour)

	// A swept series accepts new samples normally.
	if err := store.SetGauge("m", 2, nil); err != nil {
		t.Fatalf("SetGauge after sweep failed: %v", err)
	}
	if v, ok := store.LatestValue("m"); !ok || v != 2 {
		t.Errorf("LatestValue = (%v, %v), want (2, true)", v, ok)
	}
}

func TestStore_LatestValue(t *testing.T) {
	store := NewStore()
	store.MustRegister(Definition{Name: "m", Kind: KindGauge})

	if _, ok := store.LatestValue("m"); ok {
		t.Error("LatestValue on empty series should report absent")
	}
	if _, ok := store.LatestValue("unknown"); ok {
		t.Error("LatestValue on unknown metric should report absent")
	}

	for _, v := range []float64{1, 7, 3} {
		if err := store.SetGauge("m", v, nil); err != nil {
			t.Fatalf("SetGauge failed: %v", err)
		}
	}
	if v, ok := store.LatestValue("m"); !ok || v != 3 {
		t.Errorf("LatestValue = (%v, %v), want (3, true)", v, ok)
	}
}

func TestStore_Record_AutoRegister(t *testing.T) {
	store := NewStore()

	// Unregistered name: auto-registered as Gauge with the sample's tag keys.
	if err := store.Record("surprise_metric", 1.5, Tags{"city": "Kazan"}, nil); err != nil {
		t.Fatalf("Record against unregistered name failed: %v", err)
	}

	def, ok := store.Registry().Lookup("surprise_metric")
	if !ok {
		t.Fatal("Auto-registration did not create a definition")
	}
	if def.Kind != KindGauge {
		t.Errorf("Auto-registered kind = %s, want %s", def.Kind, KindGauge)
	}
	if len(def.TagKeys) != 1 || def.TagKeys[0] != "city" {
		t.Errorf("Auto-registered tag keys = %v, want [city]", def.TagKeys)
	}

	// The policy is deterministic: a conflicting explicit Register still fails.
	err := store.Register(Definition{Name: "surprise_metric", Kind: KindCounter})
	if !errors.Is(err, ErrKindConflict) {
		t.Errorf("Expected ErrKindConflict after auto-registration, got %v", err)
	}
}

func TestStore_Record_RejectsUndeclaredTags(t *testing.T) {
	store := NewStore()
	store.MustRegister(Definition{Name: "m", Kind: KindCounter, TagKeys: []string{"city"}})

	err := store.Increment("m", 1, Tags{"user_id": "42"})
	if !errors.Is(err, ErrInvalidTags) {
		t.Errorf("Expected ErrInvalidTags, got %v", err)
	}
	if got := store.SeriesLen("m"); got != 0 {
		t.Errorf("Rejected sample was stored, series length = %d", got)
	}
}

func TestStore_Record_TagsCopied(t *testing.T) {
	store := NewStore()
	store.MustRegister(Definition{Name: "m", Kind: KindGauge, TagKeys: []string{"city"}})

	tags := Tags{"city": "Moscow"}
	if err := store.SetGauge("m", 1, tags); err != nil {
		t.Fatalf("SetGauge failed: %v", err)
	}
	tags["city"] = "mutated"

	samples := store.Query("m", QueryOptions{})
	if len(samples) != 1 || samples[0].Tags["city"] != "Moscow" {
		t.Error("Stored sample shares the caller's tag map")
	}
}

func TestStore_Export(t *testing.T) {
	store := NewStore()
	store.MustRegister(Definition{Name: "a", Kind: KindCounter, Unit: "leads"})
	store.MustRegister(Definition{Name: "b", Kind: KindGauge})

	if err := store.Increment("a", 1, nil); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if err := store.SetGauge("b", 9, nil); err != nil {
		t.Fatalf("SetGauge failed: %v", err)
	}

	export := store.Export()
	if len(export.Series) != 2 {
		t.Fatalf("Export has %d series, want 2", len(export.Series))
	}
	if export.Series["a"].Definition.Unit != "leads" {
		t.Errorf("Export definition unit = %q, want %q", export.Series["a"].Definition.Unit, "leads")
	}
	if len(export.Series["b"].Samples) != 1 || export.Series["b"].Samples[0].Value != 9 {
		t.Error("Export samples do not match recorded data")
	}

	// Snapshot must serialize to the interchange format without error.
	if _, err := json.Marshal(export); err != nil {
		t.Errorf("Export is not JSON-serializable: %v", err)
	}
}

func TestTimer_Stop_ExactlyOnce(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(WithClock(clock.Now))
	store.MustRegister(Definition{Name: "op_seconds", Kind: KindTimer, Unit: "seconds"})

	timer := store.StartTimer("op_seconds", nil)
	clock.Advance(250 * time.Millisecond)
	timer.Stop()
	timer.Stop()
	timer.Stop()

	stats := store.Statistics("op_seconds", QueryOptions{})
	if stats.Count != 1 {
		t.Fatalf("Timer recorded %d samples, want exactly 1", stats.Count)
	}
	if stats.Sum != 0.25 {
		t.Errorf("Recorded duration = %v, want 0.25", stats.Sum)
	}
}

func TestStore_TimeOperation_RecordsOnPanic(t *testing.T) {
	store := NewStore()
	store.MustRegister(Definition{Name: "op_seconds", Kind: KindTimer, Unit: "seconds"})

	func() {
		defer func() { recover() }()
		_ = store.TimeOperation("op_seconds", nil, func() error {
			panic("boom")
		})
	}()

	if stats := store.Statistics("op_seconds", QueryOptions{}); stats.Count != 1 {
		t.Errorf("TimeOperation recorded %d samples on panic, want 1", stats.Count)
	}
}

func TestStore_TimeOperation_PropagatesError(t *testing.T) {
	store := NewStore()
	store.MustRegister(Definition{Name: "op_seconds", Kind: KindTimer, Unit: "seconds"})

	wantErr := errors.New("query failed")
	err := store.TimeOperation("op_seconds", nil, func() error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("TimeOperation error = %v, want %v", err, wantErr)
	}
	if stats := store.Statistics("op_seconds", QueryOptions{}); stats.Count != 1 {
		t.Errorf("TimeOperation recorded %d samples on error, want 1", stats.Count)
	}
}
