package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"creator-outreach/internal/core/domain"
	"creator-outreach/internal/core/port"
	"creator-outreach/internal/metrics"
)

const (
	JobInitialDrafts = "initial_drafts"
	JobFollowUps     = "followups"
)

// Selector finds the threads a sweep should visit.
type Selector interface {
	SelectNewThreadIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
	SelectDueFollowUpIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

// Report is the outcome of one sweep run. Selected threads end up in exactly
// one of Drafted, Skipped or Failed unless the run was cancelled.
type Report struct {
	Job      string
	Selected int
	Drafted  int
	Skipped  int
	Failed   map[uuid.UUID]error
}

// Sweeper asks the engine for drafts on behalf of threads that need one.
// It holds no state between runs: a thread drafted by a previous run or a
// concurrent caller is rejected by the engine's guards and counted as
// skipped.
type Sweeper struct {
	uc      port.OutreachUseCase
	sel     Selector
	batch   int
	workers int
	logger  *slog.Logger
	now     func() time.Time
}

type SweeperOption func(*Sweeper)

func WithSweepLogger(l *slog.Logger) SweeperOption {
	return func(s *Sweeper) { s.logger = l }
}

func WithSweepClock(now func() time.Time) SweeperOption {
	return func(s *Sweeper) { s.now = now }
}

func NewSweeper(uc port.OutreachUseCase, sel Selector, batch, workers int, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		uc:      uc,
		sel:     sel,
		batch:   max(batch, 1),
		workers: max(workers, 1),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InitialDrafts requests the first draft for threads still in stage new,
// oldest first.
func (s *Sweeper) InitialDrafts(ctx context.Context) (Report, error) {
	ids, err := s.sel.SelectNewThreadIDs(ctx, s.batch)
	if err != nil {
		return Report{Job: JobInitialDrafts}, err
	}
	return s.sweep(ctx, JobInitialDrafts, ids, s.uc.RequestDraft), nil
}

// FollowUps requests a follow-up draft for waiting threads whose follow-up
// time is at or before now.
func (s *Sweeper) FollowUps(ctx context.Context) (Report, error) {
	now := s.now().UTC().Truncate(time.Microsecond)
	ids, err := s.sel.SelectDueFollowUpIDs(ctx, now, s.batch)
	if err != nil {
		return Report{Job: JobFollowUps}, err
	}
	return s.sweep(ctx, JobFollowUps, ids, s.uc.RequestFollowUp), nil
}

func (s *Sweeper) sweep(
	ctx context.Context,
	job string,
	ids []uuid.UUID,
	request func(context.Context, uuid.UUID) (*domain.Message, error),
) Report {
	started := time.Now()
	rep := Report{Job: job, Selected: len(ids), Failed: make(map[uuid.UUID]error)}
	logger := s.logger.With(slog.String("job", job))

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.workers)
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			msg, err := request(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				rep.Drafted++
				logger.Info("draft created",
					slog.String("thread_id", id.String()),
					slog.String("message_id", msg.ID.String()),
				)
			case domain.IsBenign(err):
				rep.Skipped++
				logger.Debug("thread skipped",
					slog.String("thread_id", id.String()),
					slog.Any("error", domain.MarkRace(err)),
				)
			default:
				rep.Failed[id] = err
				level := slog.LevelWarn
				if !errors.Is(err, domain.ErrGeneration) {
					level = slog.LevelError
				}
				logger.Log(ctx, level, "thread failed",
					slog.String("thread_id", id.String()),
					slog.Any("error", err),
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	metrics.RecordSweep(job, rep.Drafted, rep.Skipped, len(rep.Failed), time.Since(started))
	if rep.Selected > 0 {
		logger.Info("sweep finished",
			slog.Int("selected", rep.Selected),
			slog.Int("drafted", rep.Drafted),
			slog.Int("skipped", rep.Skipped),
			slog.Int("failed", len(rep.Failed)),
		)
	}
	return rep
}

// Jobs returns the two sweeps as scheduler jobs. Selection errors are
// logged and the job waits for its next tick.
func (s *Sweeper) Jobs(initialEvery, followUpEvery time.Duration) []Job {
	wrap := func(name string, run func(context.Context) (Report, error)) func(context.Context) {
		return func(ctx context.Context) {
			if _, err := run(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("sweep selection failed", slog.String("job", name), slog.Any("error", err))
			}
		}
	}
	return []Job{
		{Name: JobInitialDrafts, Interval: initialEvery, Run: wrap(JobInitialDrafts, s.InitialDrafts)},
		{Name: JobFollowUps, Interval: followUpEvery, Run: wrap(JobFollowUps, s.FollowUps)},
	}
}
