package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"creator-outreach/internal/adapter/memory"
	"creator-outreach/internal/adapter/usecase"
	"creator-outreach/internal/config/configs"
	"creator-outreach/internal/core/domain"
	"creator-outreach/internal/core/port"
	"creator-outreach/internal/core/port/mocks"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type sweepFixture struct {
	store     *memory.Store
	generator *mocks.MockDraftGenerator
	sender    *mocks.MockSendGateway
	clock     *clock
	uc        *usecase.OutreachUseCase
	sweeper   *Sweeper
	campaign  *domain.Campaign
}

func newSweepFixture(t *testing.T, batch, workers int) *sweepFixture {
	t.Helper()
	f := &sweepFixture{
		store:     memory.New(),
		generator: mocks.NewMockDraftGenerator(t),
		sender:    mocks.NewMockSendGateway(t),
		clock:     &clock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)},
	}
	policy := usecase.Policy{
		FollowUpDelay:   72 * time.Hour,
		Uniqueness:      configs.UniquenessAllow,
		GenerateTimeout: time.Second,
		SendTimeout:     time.Second,
	}
	f.uc = usecase.NewOutreachUseCase(f.store, f.generator, f.sender, policy, usecase.WithClock(f.clock.Now))
	f.sweeper = NewSweeper(f.uc, f.store, batch, workers, WithSweepClock(f.clock.Now))

	f.campaign = &domain.Campaign{ID: uuid.New(), Name: "Spring launch", OfferType: domain.OfferGifted, CreatedAt: f.clock.Now()}
	require.NoError(t, f.store.CreateCampaign(context.Background(), f.campaign))
	return f
}

// newThreads creates n threads in stage new, each for its own influencer.
func (f *sweepFixture) newThreads(t *testing.T, n int) []uuid.UUID {
	t.Helper()
	ctx := context.Background()
	ids := make([]uuid.UUID, 0, n)
	for range n {
		inf := &domain.Influencer{
			ID:        uuid.New(),
			Platform:  "instagram",
			Handle:    "creator" + uuid.NewString()[:8],
			Email:     "creator@example.com",
			CreatedAt: f.clock.Now(),
			UpdatedAt: f.clock.Now(),
		}
		require.NoError(t, f.store.CreateInfluencer(ctx, inf))
		th, err := f.uc.CreateThread(ctx, inf.ID, f.campaign.ID)
		require.NoError(t, err)
		ids = append(ids, th.ID)
	}
	return ids
}

func (f *sweepFixture) generatorSucceeds() *mocks.MockDraftGenerator_Generate_Call {
	return f.generator.EXPECT().
		Generate(mock.Anything, mock.AnythingOfType("port.DraftContext")).
		Return(port.Draft{Subject: "Hello", Body: "Body", Mode: domain.ModeMock}, nil)
}

func (f *sweepFixture) outboundCount(t *testing.T, threadID uuid.UUID) int {
	t.Helper()
	msgs, err := f.uc.ListMessages(context.Background(), threadID)
	require.NoError(t, err)
	n := 0
	for _, m := range msgs {
		if m.Direction == domain.DirectionOutbound {
			n++
		}
	}
	return n
}

func TestInitialDraftSweepIsIdempotent(t *testing.T) {
	f := newSweepFixture(t, 10, 3)
	f.generatorSucceeds().Times(3)
	ids := f.newThreads(t, 3)
	ctx := context.Background()

	rep, err := f.sweeper.InitialDrafts(ctx)
	require.NoError(t, err)
	assert.Equal(t, JobInitialDrafts, rep.Job)
	assert.Equal(t, 3, rep.Selected)
	assert.Equal(t, 3, rep.Drafted)
	assert.Empty(t, rep.Failed)

	rep, err = f.sweeper.InitialDrafts(ctx)
	require.NoError(t, err)
	assert.Zero(t, rep.Selected)
	assert.Zero(t, rep.Drafted)

	for _, id := range ids {
		th, err := f.uc.GetThread(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.StageNeedsApproval, th.Stage)
		assert.Equal(t, 1, f.outboundCount(t, id))
	}
}

func TestInitialDraftSweepRespectsBatch(t *testing.T) {
	f := newSweepFixture(t, 2, 1)
	f.generatorSucceeds()
	f.newThreads(t, 5)

	rep, err := f.sweeper.InitialDrafts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Selected)
	assert.Equal(t, 2, rep.Drafted)
}

func TestConcurrentSweepsDraftEachThreadOnce(t *testing.T) {
	f := newSweepFixture(t, 20, 4)
	f.generatorSucceeds()
	ids := f.newThreads(t, 8)
	ctx := context.Background()

	const sweeps = 4
	reports := make([]Report, sweeps)
	var wg sync.WaitGroup
	for i := range sweeps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rep, err := f.sweeper.InitialDrafts(ctx)
			assert.NoError(t, err)
			reports[i] = rep
		}()
	}
	wg.Wait()

	drafted := 0
	for _, rep := range reports {
		assert.Empty(t, rep.Failed)
		assert.Equal(t, rep.Selected, rep.Drafted+rep.Skipped)
		drafted += rep.Drafted
	}
	assert.Equal(t, len(ids), drafted)
	for _, id := range ids {
		assert.Equal(t, 1, f.outboundCount(t, id))
	}
}

func TestFollowUpSweepBoundary(t *testing.T) {
	f := newSweepFixture(t, 10, 2)
	f.generatorSucceeds()
	f.sender.EXPECT().
		Send(mock.Anything, mock.AnythingOfType("port.SendPayload")).
		Return("provider-1", nil)
	ctx := context.Background()

	id := f.newThreads(t, 1)[0]
	msg, err := f.uc.RequestDraft(ctx, id)
	require.NoError(t, err)
	_, err = f.uc.Approve(ctx, msg.ID)
	require.NoError(t, err)
	_, err = f.uc.Send(ctx, msg.ID)
	require.NoError(t, err)

	th, err := f.uc.GetThread(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, th.NextFollowUpAt)
	due := *th.NextFollowUpAt

	f.clock.Set(due.Add(-time.Microsecond))
	rep, err := f.sweeper.FollowUps(ctx)
	require.NoError(t, err)
	assert.Zero(t, rep.Selected)

	f.clock.Set(due)
	rep, err = f.sweeper.FollowUps(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Selected)
	assert.Equal(t, 1, rep.Drafted)

	th, err = f.uc.GetThread(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StageNeedsApproval, th.Stage)
	assert.Equal(t, 2, f.outboundCount(t, id))

	rep, err = f.sweeper.FollowUps(ctx)
	require.NoError(t, err)
	assert.Zero(t, rep.Selected)
}

func TestSweepReportsGenerationFailures(t *testing.T) {
	f := newSweepFixture(t, 10, 2)
	ids := f.newThreads(t, 2)
	failing := ids[0]
	failingInfluencer := mustThread(t, f, failing).InfluencerID
	f.generator.EXPECT().
		Generate(mock.Anything, mock.AnythingOfType("port.DraftContext")).
		RunAndReturn(func(_ context.Context, in port.DraftContext) (port.Draft, error) {
			if in.Influencer.ID == failingInfluencer {
				return port.Draft{}, errors.New("model overloaded")
			}
			return port.Draft{Subject: "Hello", Body: "Body", Mode: domain.ModeMock}, nil
		})

	rep, err := f.sweeper.InitialDrafts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Drafted)
	require.Len(t, rep.Failed, 1)
	assert.ErrorIs(t, rep.Failed[failing], domain.ErrGeneration)

	th := mustThread(t, f, failing)
	assert.Equal(t, domain.StageNew, th.Stage)
	assert.Zero(t, f.outboundCount(t, failing))
}

func TestSweepSelectionError(t *testing.T) {
	sel := failingSelector{err: errors.New("connection refused")}
	s := NewSweeper(nil, sel, 10, 1)

	_, err := s.InitialDrafts(context.Background())
	assert.ErrorContains(t, err, "connection refused")
	_, err = s.FollowUps(context.Background())
	assert.ErrorContains(t, err, "connection refused")
}

func TestSchedulerRunsJobsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var (
		mu   sync.Mutex
		runs int
	)
	job := Job{
		Name:     "count",
		Interval: time.Millisecond,
		Run: func(context.Context) {
			mu.Lock()
			defer mu.Unlock()
			runs++
			if runs == 3 {
				cancel()
			}
		},
	}

	done := make(chan struct{})
	go func() {
		New(discardLogger(), job).Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, runs, 3)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type failingSelector struct{ err error }

func (s failingSelector) SelectNewThreadIDs(context.Context, int) ([]uuid.UUID, error) {
	return nil, s.err
}

func (s failingSelector) SelectDueFollowUpIDs(context.Context, time.Time, int) ([]uuid.UUID, error) {
	return nil, s.err
}

func mustThread(t *testing.T, f *sweepFixture, id uuid.UUID) *domain.Thread {
	t.Helper()
	th, err := f.store.GetThread(context.Background(), id)
	require.NoError(t, err)
	return th
}

func TestFollowUpSweepSkipsRepliedThreads(t *testing.T) {
	f := newSweepFixture(t, 10, 2)
	f.generatorSucceeds().Once()
	f.sender.EXPECT().
		Send(mock.Anything, mock.AnythingOfType("port.SendPayload")).
		Return("provider-1", nil).Once()
	ctx := context.Background()

	id := f.newThreads(t, 1)[0]
	msg, err := f.uc.RequestDraft(ctx, id)
	require.NoError(t, err)
	_, err = f.uc.Approve(ctx, msg.ID)
	require.NoError(t, err)
	_, err = f.uc.Send(ctx, msg.ID)
	require.NoError(t, err)

	th := mustThread(t, f, id)
	require.NotNil(t, th.NextFollowUpAt)
	due := *th.NextFollowUpAt

	f.clock.Set(due.Add(-time.Hour))
	_, err = f.uc.RecordInboundReply(ctx, id, port.InboundReply{Body: "Sounds great"})
	require.NoError(t, err)

	f.clock.Set(due.Add(24 * time.Hour))
	for range 2 {
		rep, err := f.sweeper.FollowUps(ctx)
		require.NoError(t, err)
		assert.Zero(t, rep.Selected)
		assert.Zero(t, rep.Drafted)
	}

	assert.Equal(t, domain.StageReplied, mustThread(t, f, id).Stage)
	assert.Equal(t, 1, f.outboundCount(t, id))
}
