// Package maintenance runs housekeeping jobs on cron schedules: follow
// mirror reconciliation and purging messages left behind by deleted dialogs.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"Flock/internal/metrics"

	"github.com/adhocore/gronx"
	"golang.org/x/sync/errgroup"
)

// retryDelay is how long a job loop waits after failing to compute its next tick
const retryDelay = 30 * time.Second

// Job is a named unit of maintenance work
type Job struct {
	Run  func(ctx context.Context) error
	Name string
	Cron string
}

// Scheduler runs each job on its own cron loop. A job never overlaps itself:
// a run that outlasts its interval delays the next tick.
type Scheduler struct {
	logger   *slog.Logger
	nextTick func(expr string, ref time.Time) (time.Time, error)
	jobs     []Job
}

// NewScheduler validates every job's cron expression. Jobs with an empty
// expression are disabled.
func NewScheduler(logger *slog.Logger, jobs ...Job) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	enabled := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		if job.Cron == "" {
			logger.Info("maintenance job disabled", "job", job.Name)
			continue
		}
		if !gronx.IsValid(job.Cron) {
			return nil, fmt.Errorf("invalid cron expression for %s: %q", job.Name, job.Cron)
		}
		enabled = append(enabled, job)
	}

	return &Scheduler{
		logger:   logger,
		nextTick: nextTick,
		jobs:     enabled,
	}, nil
}

func nextTick(expr string, ref time.Time) (time.Time, error) {
	return gronx.NextTickAfter(expr, ref, false)
}

// Run blocks until ctx is canceled
func (s *Scheduler) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, job := range s.jobs {
		job := job
		g.Go(func() error {
			s.loop(gctx, job)
			return nil
		})
	}
	return g.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	s.logger.Info("maintenance job scheduled", "job", job.Name, "cron", job.Cron)

	for {
		next, err := s.nextTick(job.Cron, time.Now().UTC())
		wait := time.Until(next)
		if err != nil {
			s.logger.Error("failed to compute next tick", "job", job.Name, "cron", job.Cron, "error", err)
			wait = retryDelay
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("maintenance job stopping", "job", job.Name)
			return
		case <-timer.C:
		}

		if err == nil {
			_ = s.RunJob(ctx, job)
		}
	}
}

// RunJob runs a single job immediately and records its outcome
func (s *Scheduler) RunJob(ctx context.Context, job Job) error {
	start := time.Now()
	err := job.Run(ctx)
	metrics.ObserveJob(job.Name, start, err)

	if err != nil {
		s.logger.Error("maintenance job failed", "job", job.Name, "duration", time.Since(start), "error", err)
		return err
	}
	s.logger.Info("maintenance job finished", "job", job.Name, "duration", time.Since(start))
	return nil
}
