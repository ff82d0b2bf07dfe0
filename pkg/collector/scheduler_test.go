package collector

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_RunsUntilCancelled(t *testing.T) {
	var runs atomic.Int64

	sched := NewScheduler()
	sched.Add(Job{
		Name:     "counting",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	sched.Run(ctx)

	got := runs.Load()
	if got < 2 {
		t.Errorf("Job ran %d times in 100ms at 10ms interval, want at least 2", got)
	}
}

func TestScheduler_FailingCycleIsIsolated(t *testing.T) {
	var failing, healthy atomic.Int64

	sched := NewScheduler()
	sched.Add(
		Job{
			Name:     "failing",
			Interval: 10 * time.Millisecond,
			Run: func(ctx context.Context) error {
				failing.Add(1)
				return errors.New("database unreachable")
			},
		},
		Job{
			Name:     "healthy",
			Interval: 10 * time.Millisecond,
			Run: func(ctx context.Context) error {
				healthy.Add(1)
				return nil
			},
		},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	sched.Run(ctx)

	// The failing job keeps being rescheduled and never blocks its sibling.
	if failing.Load() < 2 {
		t.Errorf("Failing job ran %d times, want at least 2 (failures must not stop the schedule)", failing.Load())
	}
	if healthy.Load() < 2 {
		t.Errorf("Healthy job ran %d times, want at least 2", healthy.Load())
	}
}

func TestScheduler_PanicIsRecovered(t *testing.T) {
	var runs atomic.Int64

	sched := NewScheduler()
	sched.Add(Job{
		Name:     "panicking",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			panic("unexpected state")
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	// Run must return normally despite every cycle panicking.
	sched.Run(ctx)

	if runs.Load() < 2 {
		t.Errorf("Panicking job ran %d times, want at least 2 (panics must be per-cycle)", runs.Load())
	}
}

func TestScheduler_DefaultInterval(t *testing.T) {
	var runs atomic.Int64

	sched := NewScheduler()
	sched.Add(Job{
		Name: "no-interval",
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	sched.Run(ctx)

	// The first cycle runs immediately even with the 60s default interval.
	if runs.Load() != 1 {
		t.Errorf("Job ran %d times, want exactly 1 immediate cycle", runs.Load())
	}
}
