package metrics

import (
	"sync"
	"time"
)

// Timer measures the duration of one unit of work. Obtain one with
// Store.StartTimer and call Stop when the work finishes. Stop is
// idempotent, so deferring it guarantees exactly one duration sample on
// every exit path, including panics and early returns.
type Timer struct {
	store *Store
	name  string
	tags  Tags
	start time.Time
	once  sync.Once
}

// StartTimer starts a scoped duration measurement for name.
//
//	timer := store.StartTimer("lead_import_seconds", nil)
//	defer timer.Stop()
func (s *Store) StartTimer(name string, tags Tags) *Timer {
	return &Timer{
		store: s,
		name:  name,
		tags:  tags,
		start: s.now(),
	}
}

// Stop records the elapsed duration in seconds. Only the first call
// records; later calls are no-ops.
func (t *Timer) Stop() {
	t.once.Do(func() {
		elapsed := t.store.now().Sub(t.start).Seconds()
		_ = t.store.Record(t.name, elapsed, t.tags, nil)
	})
}

// TimeOperation runs fn and records its duration under name. The sample
// is recorded even when fn panics.
func (s *Store) TimeOperation(name string, tags Tags, fn func() error) error {
	timer := s.StartTimer(name, tags)
	defer timer.Stop()
	return fn()
}
