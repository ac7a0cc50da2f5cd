// Package scheduler drives the periodic outreach sweeps.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is one periodic task. Run is called once when the scheduler starts
// and then every Interval until the context is cancelled.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)
}

type Scheduler struct {
	jobs   []Job
	logger *slog.Logger
}

func New(logger *slog.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs, logger: logger}
}

// Start runs every job on its own ticker and blocks until ctx is done and
// all in-flight runs have returned.
func (s *Scheduler) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for _, job := range s.jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.loop(ctx, job)
		}()
	}
	wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	logger := s.logger.With(slog.String("job", job.Name))
	logger.Info("job started", slog.Duration("interval", job.Interval))

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	job.Run(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("job stopped")
			return
		case <-ticker.C:
			job.Run(ctx)
		}
	}
}
