package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"creator-outreach/internal/core/domain"
)

// threadTx stages writes for one locked thread. Reads see committed data
// merged with the staged writes.
type threadTx struct {
	store       *Store
	thread      domain.Thread
	threadDirty bool
	staged      map[uuid.UUID]domain.Message
	inserted    []uuid.UUID
}

func (tx *threadTx) Thread() *domain.Thread {
	t := cloneThread(tx.thread)
	return &t
}

func (tx *threadTx) Influencer(ctx context.Context) (*domain.Influencer, error) {
	return tx.store.GetInfluencer(ctx, tx.thread.InfluencerID)
}

func (tx *threadTx) Campaign(ctx context.Context) (*domain.Campaign, error) {
	return tx.store.GetCampaign(ctx, tx.thread.CampaignID)
}

func (tx *threadTx) Messages(ctx context.Context) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tx.store.mu.RLock()
	committed := tx.store.threadMessagesLocked(tx.thread.ID)
	tx.store.mu.RUnlock()

	out := make([]domain.Message, 0, len(committed)+len(tx.inserted))
	for _, m := range committed {
		if staged, ok := tx.staged[m.ID]; ok {
			m = cloneMessage(staged)
		}
		out = append(out, m)
	}
	for _, id := range tx.inserted {
		out = append(out, cloneMessage(tx.staged[id]))
	}
	slices.SortStableFunc(out, func(a, b domain.Message) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (tx *threadTx) Message(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m, ok := tx.staged[id]; ok {
		out := cloneMessage(m)
		return &out, nil
	}
	tx.store.mu.RLock()
	m, ok := tx.store.messages[id]
	tx.store.mu.RUnlock()
	if !ok || m.ThreadID != tx.thread.ID {
		return nil, &domain.NotFoundError{Entity: "message", ID: id}
	}
	out := cloneMessage(m)
	return &out, nil
}

func (tx *threadTx) HasPendingOutbound(ctx context.Context) (bool, error) {
	msgs, err := tx.Messages(ctx)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(msgs, func(m domain.Message) bool { return m.PendingOutbound() }), nil
}

func (tx *threadTx) HasInboundAfter(ctx context.Context, t *time.Time) (bool, error) {
	msgs, err := tx.Messages(ctx)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(msgs, func(m domain.Message) bool {
		return m.Direction == domain.DirectionInbound && (t == nil || m.CreatedAt.After(*t))
	}), nil
}

func (tx *threadTx) InsertMessage(ctx context.Context, m *domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.ThreadID = tx.thread.ID
	tx.staged[m.ID] = cloneMessage(*m)
	tx.inserted = append(tx.inserted, m.ID)
	return nil
}

func (tx *threadTx) UpdateMessage(ctx context.Context, m *domain.Message) error {
	if _, err := tx.Message(ctx, m.ID); err != nil {
		return err
	}
	tx.staged[m.ID] = cloneMessage(*m)
	return nil
}

func (tx *threadTx) UpdateThread(ctx context.Context, t *domain.Thread) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.thread = cloneThread(*t)
	tx.threadDirty = true
	return nil
}

func (tx *threadTx) commit() {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.threadDirty {
		s.threads[tx.thread.ID] = cloneThread(tx.thread)
	}
	for id, m := range tx.staged {
		s.messages[id] = m
	}
	s.threadMessages[tx.thread.ID] = append(s.threadMessages[tx.thread.ID], tx.inserted...)
}
