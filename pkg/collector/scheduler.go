package collector

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultInterval is the collector interval when a job declares none.
const DefaultInterval = 60 * time.Second

// Job is one scheduled collection task.
type Job struct {
	// Name identifies the job in logs and metrics.
	Name string

	// Interval is the time between cycle starts.
	Interval time.Duration

	// Run performs one cycle. Errors are logged and the cycle is
	// skipped; the next cycle runs on schedule.
	Run func(ctx context.Context) error
}

// Scheduler runs jobs on fixed intervals until its context is
// cancelled. Per-cycle failures are isolated: an error or panic in one
// cycle never stops the job or its siblings.
type Scheduler struct {
	jobs   []Job
	logger zerolog.Logger
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		logger: log.With().Str("component", "collector-scheduler").Logger(),
	}
}

// Add registers a job. Must be called before Run.
func (s *Scheduler) Add(jobs ...Job) {
	s.jobs = append(s.jobs, jobs...)
}

// Run starts every job and blocks until ctx is cancelled. Each job gets
// its own goroutine and ticker; the first cycle runs immediately.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, job := range s.jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			s.runJob(ctx, job)
		}(job)
	}

	s.logger.Info().Int("jobs", len(s.jobs)).Msg("Collector scheduler started")
	wg.Wait()
	s.logger.Info().Msg("Collector scheduler stopped")
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	interval := job.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.runCycle(ctx, job)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx, job)
		}
	}
}

// runCycle executes one cycle with panic isolation.
func (s *Scheduler) runCycle(ctx context.Context, job Job) {
	start := time.Now()
	defer func() {
		cycleDuration.WithLabelValues(job.Name).Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			cycles.WithLabelValues(job.Name, "panic").Inc()
			s.logger.Error().
				Str("job", job.Name).
				Interface("panic", r).
				Msg("Collector cycle panicked")
		}
	}()

	if err := job.Run(ctx); err != nil {
		cycles.WithLabelValues(job.Name, "error").Inc()
		s.logger.Error().
			Err(err).
			Str("job", job.Name).
			Dur("duration", time.Since(start)).
			Msg("Collector cycle failed")
		return
	}

	cycles.WithLabelValues(job.Name, "ok").Inc()
	s.logger.Debug().
		Str("job", job.Name).
		Dur("duration", time.Since(start)).
		Msg("Collector cycle complete")
}
