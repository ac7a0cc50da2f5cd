// Package memory implements port.OutreachRepository in process memory. Each
// thread has its own mutex, so WithThreadLock gives the same single writer
// per thread guarantee as a row lock. Writes made inside WithThreadLock are
// staged and applied only when the callback succeeds.
package memory

import (
	"bytes"
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"creator-outreach/internal/core/domain"
	"creator-outreach/internal/core/port"
)

// Store is safe for concurrent use. The zero value is not usable; call New.
type Store struct {
	mu          sync.RWMutex
	influencers map[uuid.UUID]domain.Influencer
	campaigns   map[uuid.UUID]domain.Campaign
	threads     map[uuid.UUID]domain.Thread
	messages    map[uuid.UUID]domain.Message
	// threadMessages keeps message ids per thread in insertion order.
	threadMessages map[uuid.UUID][]uuid.UUID

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

var _ port.OutreachRepository = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		influencers:    make(map[uuid.UUID]domain.Influencer),
		campaigns:      make(map[uuid.UUID]domain.Campaign),
		threads:        make(map[uuid.UUID]domain.Thread),
		messages:       make(map[uuid.UUID]domain.Message),
		threadMessages: make(map[uuid.UUID][]uuid.UUID),
		locks:          make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *Store) CreateInfluencer(ctx context.Context, inf *domain.Influencer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.influencers[inf.ID] = cloneInfluencer(*inf)
	return nil
}

func (s *Store) GetInfluencer(ctx context.Context, id uuid.UUID) (*domain.Influencer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	inf, ok := s.influencers[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "influencer", ID: id}
	}
	out := cloneInfluencer(inf)
	return &out, nil
}

func (s *Store) ListInfluencersByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Influencer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Influencer, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		inf, ok := s.influencers[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, cloneInfluencer(inf))
	}
	return out, nil
}

func (s *Store) ListInfluencers(ctx context.Context, filter port.InfluencerFilter) ([]domain.Influencer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Influencer, 0)
	for _, inf := range s.influencers {
		if filter.Platform != "" && inf.Platform != filter.Platform {
			continue
		}
		if filter.HasEmail != nil && (inf.Email != "") != *filter.HasEmail {
			continue
		}
		out = append(out, cloneInfluencer(inf))
	}
	// newest first, like the SQL store
	slices.SortFunc(out, func(a, b domain.Influencer) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(b.ID[:], a.ID[:])
	})
	return limit(out, filter.Limit), nil
}

func (s *Store) UpdateInfluencer(ctx context.Context, id uuid.UUID, upd domain.ProfileUpdate) (*domain.Influencer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	inf, ok := s.influencers[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "influencer", ID: id}
	}
	upd.Apply(&inf)
	inf.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	s.influencers[id] = cloneInfluencer(inf)
	out := cloneInfluencer(inf)
	return &out, nil
}

func (s *Store) CreateCampaign(ctx context.Context, c *domain.Campaign) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[c.ID] = cloneCampaign(*c)
	return nil
}

func (s *Store) GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "campaign", ID: id}
	}
	out := cloneCampaign(c)
	return &out, nil
}

func (s *Store) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Campaign, 0, len(s.campaigns))
	for _, c := range s.campaigns {
		out = append(out, cloneCampaign(c))
	}
	slices.SortFunc(out, func(a, b domain.Campaign) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return out, nil
}

func (s *Store) CreateThread(ctx context.Context, t *domain.Thread) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[t.ID] = cloneThread(*t)
	return nil
}

func (s *Store) CreateThreadIfAbsent(ctx context.Context, t *domain.Thread) (*domain.Thread, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var existing *domain.Thread
	for _, cur := range s.threads {
		if cur.InfluencerID != t.InfluencerID || cur.CampaignID != t.CampaignID {
			continue
		}
		// report the oldest thread of the pair when several exist
		if existing == nil || cur.CreatedAt.Before(existing.CreatedAt) {
			c := cloneThread(cur)
			existing = &c
		}
	}
	if existing != nil {
		return existing, false, nil
	}
	s.threads[t.ID] = cloneThread(*t)
	out := cloneThread(*t)
	return &out, true, nil
}

func (s *Store) GetThread(ctx context.Context, id uuid.UUID) (*domain.Thread, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.threads[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "thread", ID: id}
	}
	out := cloneThread(t)
	return &out, nil
}

func (s *Store) ListThreads(ctx context.Context, filter port.ThreadFilter) ([]domain.Thread, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Thread, 0)
	for _, t := range s.threads {
		if filter.Stage != 0 && t.Stage != filter.Stage {
			continue
		}
		out = append(out, cloneThread(t))
	}
	slices.SortFunc(out, compareThreadListing)
	return limit(out, filter.Limit), nil
}

// compareThreadListing orders by next follow-up ascending, then last contact
// descending, both with missing values last, then id descending.
func compareThreadListing(a, b domain.Thread) int {
	if c := compareNullableTime(a.NextFollowUpAt, b.NextFollowUpAt, false); c != 0 {
		return c
	}
	if c := compareNullableTime(a.LastContactAt, b.LastContactAt, true); c != 0 {
		return c
	}
	return bytes.Compare(b.ID[:], a.ID[:])
}

func compareNullableTime(a, b *time.Time, desc bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case desc:
		return b.Compare(*a)
	default:
		return a.Compare(*b)
	}
}

func (s *Store) ThreadInfluencersForCampaign(ctx context.Context, campaignID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]bool)
	for _, t := range s.threads {
		if t.CampaignID == campaignID && want[t.InfluencerID] {
			out[t.InfluencerID] = true
		}
	}
	return out, nil
}

func (s *Store) SelectNewThreadIDs(ctx context.Context, n int) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	candidates := make([]domain.Thread, 0)
	for _, t := range s.threads {
		if t.Stage == domain.StageNew {
			candidates = append(candidates, t)
		}
	}
	s.mu.RUnlock()
	slices.SortFunc(candidates, func(a, b domain.Thread) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return threadIDs(limit(candidates, n)), nil
}

func (s *Store) SelectDueFollowUpIDs(ctx context.Context, now time.Time, n int) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	candidates := make([]domain.Thread, 0)
	for _, t := range s.threads {
		if t.FollowUpDue(now) {
			candidates = append(candidates, t)
		}
	}
	s.mu.RUnlock()
	slices.SortFunc(candidates, func(a, b domain.Thread) int {
		if c := a.NextFollowUpAt.Compare(*b.NextFollowUpAt); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return threadIDs(limit(candidates, n)), nil
}

func (s *Store) GetMessage(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "message", ID: id}
	}
	out := cloneMessage(m)
	return &out, nil
}

func (s *Store) ListMessages(ctx context.Context, threadID uuid.UUID, n int) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return limit(s.threadMessagesLocked(threadID), n), nil
}

// threadMessagesLocked returns copies ordered by creation time. s.mu must be
// held.
func (s *Store) threadMessagesLocked(threadID uuid.UUID) []domain.Message {
	ids := s.threadMessages[threadID]
	out := make([]domain.Message, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneMessage(s.messages[id]))
	}
	slices.SortStableFunc(out, func(a, b domain.Message) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

func (s *Store) WithThreadLock(ctx context.Context, threadID uuid.UUID, fn func(context.Context, port.ThreadTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l := s.threadLock(threadID)
	l.Lock()
	defer l.Unlock()

	s.mu.RLock()
	t, ok := s.threads[threadID]
	s.mu.RUnlock()
	if !ok {
		return &domain.NotFoundError{Entity: "thread", ID: threadID}
	}

	tx := &threadTx{store: s, thread: cloneThread(t), staged: make(map[uuid.UUID]domain.Message)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *Store) threadLock(id uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func threadIDs(ts []domain.Thread) []uuid.UUID {
	out := make([]uuid.UUID, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
