package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"creator-outreach/internal/core/domain"
)

// OutreachUseCase defines the operations exposed by the workflow engine. It
// is the only component allowed to change thread stages and message
// statuses. The HTTP adapter and the scheduler are both callers of this
// port.
type OutreachUseCase interface {
	// CreateThread opens a thread for the influencer and campaign in stage
	// new. Unknown references yield a NotFoundError. Depending on the pair
	// policy an existing pair is allowed, rejected with a
	// DuplicateThreadError, or returned as is.
	CreateThread(ctx context.Context, influencerID, campaignID uuid.UUID) (*domain.Thread, error)

	// CreateThreads opens threads for many influencers of one campaign,
	// skipping influencers that already have one and counting ids that do
	// not exist.
	CreateThreads(ctx context.Context, campaignID uuid.UUID, influencerIDs []uuid.UUID) (*BulkResult, error)

	// RequestDraft generates the initial draft of a thread in stage new and
	// moves it to needs_approval. It fails with a GuardViolationError when
	// the thread has left stage new or already has a pending draft, and with
	// a GenerationError when the generator fails; in both cases nothing is
	// written.
	RequestDraft(ctx context.Context, threadID uuid.UUID) (*domain.Message, error)

	// RequestFollowUp generates a follow-up draft for a waiting thread whose
	// follow-up time has passed and that received no reply since the last
	// contact. The draft carries the same approval gate as initial drafts.
	RequestFollowUp(ctx context.Context, threadID uuid.UUID) (*domain.Message, error)

	// Approve moves a draft message to approved.
	Approve(ctx context.Context, messageID uuid.UUID) (*domain.Message, error)

	// Send delivers an approved message. On success the message is sent and
	// the thread waits for a reply until the next follow-up time. On a
	// gateway failure the message stays approved and can be retried.
	Send(ctx context.Context, messageID uuid.UUID) (*domain.Message, error)

	// RecordInboundReply stores a reply and moves the thread to replied,
	// cancelling any scheduled follow-up.
	RecordInboundReply(ctx context.Context, threadID uuid.UUID, reply InboundReply) (*domain.Message, error)

	GetThread(ctx context.Context, id uuid.UUID) (*domain.Thread, error)
	ListThreads(ctx context.Context, filter ThreadFilter) ([]domain.Thread, error)
	ListMessages(ctx context.Context, threadID uuid.UUID) ([]domain.Message, error)
	GetMessage(ctx context.Context, id uuid.UUID) (*domain.Message, error)
}

// CatalogUseCase manages the influencers and campaigns threads refer to.
type CatalogUseCase interface {
	CreateInfluencer(ctx context.Context, in NewInfluencer) (*domain.Influencer, error)
	GetInfluencer(ctx context.Context, id uuid.UUID) (*domain.Influencer, error)
	ListInfluencers(ctx context.Context, filter InfluencerFilter) ([]domain.Influencer, error)
	RefreshProfile(ctx context.Context, id uuid.UUID, upd domain.ProfileUpdate) (*domain.Influencer, error)

	CreateCampaign(ctx context.Context, in NewCampaign) (*domain.Campaign, error)
	GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	ListCampaigns(ctx context.Context) ([]domain.Campaign, error)
}

// InboundReply is a message received from the creator. A zero ReceivedAt
// means now; other values are clamped to [thread creation, now].
type InboundReply struct {
	Subject    string
	Body       string
	ReceivedAt time.Time
}

// BulkResult summarises CreateThreads.
type BulkResult struct {
	Created            int
	SkippedExisting    int
	MissingInfluencers int
	Threads            []domain.Thread
}

// NewInfluencer is the input for CreateInfluencer.
type NewInfluencer struct {
	Platform       string
	Handle         string
	DisplayName    string
	ProfileURL     string
	Email          string
	Bio            string
	Followers      *int64
	EngagementRate *float64
	NicheTags      []string
}

// NewCampaign is the input for CreateCampaign.
type NewCampaign struct {
	Name      string
	OfferType string
	Rules     domain.CampaignRules
}
