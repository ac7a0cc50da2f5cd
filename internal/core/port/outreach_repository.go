package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"creator-outreach/internal/core/domain"
)

// OutreachRepository defines the persistence layer for the outreach engine.
// It is an outbound port in hexagonal architecture. Reads return
// *domain.NotFoundError for unknown ids. Every write to a thread or its
// messages goes through WithThreadLock so that concurrent callers on the
// same thread are serialised.
type OutreachRepository interface {
	CreateInfluencer(ctx context.Context, inf *domain.Influencer) error
	GetInfluencer(ctx context.Context, id uuid.UUID) (*domain.Influencer, error)
	// ListInfluencersByIDs returns the influencers that exist among ids.
	ListInfluencersByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Influencer, error)
	ListInfluencers(ctx context.Context, filter InfluencerFilter) ([]domain.Influencer, error)
	// UpdateInfluencer applies a profile refresh and returns the result.
	UpdateInfluencer(ctx context.Context, id uuid.UUID, upd domain.ProfileUpdate) (*domain.Influencer, error)

	CreateCampaign(ctx context.Context, c *domain.Campaign) error
	GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	ListCampaigns(ctx context.Context) ([]domain.Campaign, error)

	// CreateThread inserts a thread without looking at existing pairs.
	CreateThread(ctx context.Context, t *domain.Thread) error
	// CreateThreadIfAbsent atomically inserts t unless a thread already links
	// the same influencer and campaign, in which case the existing thread is
	// returned with created=false.
	CreateThreadIfAbsent(ctx context.Context, t *domain.Thread) (existing *domain.Thread, created bool, err error)
	GetThread(ctx context.Context, id uuid.UUID) (*domain.Thread, error)
	ListThreads(ctx context.Context, filter ThreadFilter) ([]domain.Thread, error)
	// ThreadInfluencersForCampaign returns the influencer ids among ids that
	// already have a thread for the campaign.
	ThreadInfluencersForCampaign(ctx context.Context, campaignID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error)

	// SelectNewThreadIDs returns ids of threads in stage new, oldest first.
	SelectNewThreadIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
	// SelectDueFollowUpIDs returns ids of waiting threads whose follow-up time
	// is at or before now, earliest first.
	SelectDueFollowUpIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)

	GetMessage(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	ListMessages(ctx context.Context, threadID uuid.UUID, limit int) ([]domain.Message, error)

	// WithThreadLock runs fn while holding an exclusive lock on the thread.
	// Writes made through the ThreadTx are committed only when fn returns
	// nil; any error discards them.
	WithThreadLock(ctx context.Context, threadID uuid.UUID, fn func(ctx context.Context, tx ThreadTx) error) error
}

// ThreadTx is the view of one locked thread handed to WithThreadLock.
type ThreadTx interface {
	// Thread returns the locked thread as read at lock time.
	Thread() *domain.Thread
	// Influencer and Campaign return the records the thread links. They are
	// read on the locked connection so a lock holder never waits for a
	// second one.
	Influencer(ctx context.Context) (*domain.Influencer, error)
	Campaign(ctx context.Context) (*domain.Campaign, error)
	// Messages returns the thread messages ordered by creation time.
	Messages(ctx context.Context) ([]domain.Message, error)
	// Message returns one message of the locked thread.
	Message(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	// HasPendingOutbound reports whether an outbound draft or approved
	// message exists.
	HasPendingOutbound(ctx context.Context) (bool, error)
	// HasInboundAfter reports whether an inbound message was created after
	// t. A nil t means any inbound message counts.
	HasInboundAfter(ctx context.Context, t *time.Time) (bool, error)
	InsertMessage(ctx context.Context, m *domain.Message) error
	UpdateMessage(ctx context.Context, m *domain.Message) error
	UpdateThread(ctx context.Context, t *domain.Thread) error
}

// ThreadFilter narrows ListThreads. A zero Stage means all stages.
type ThreadFilter struct {
	Stage domain.Stage
	Limit int
}

// InfluencerFilter narrows ListInfluencers. HasEmail nil means either.
type InfluencerFilter struct {
	Platform string
	HasEmail *bool
	Limit    int
}
