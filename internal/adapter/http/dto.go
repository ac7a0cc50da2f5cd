package httpadapter

import (
	"time"

	"github.com/google/uuid"

	"creator-outreach/internal/core/domain"
	"creator-outreach/internal/core/port"
)

type influencerResponse struct {
	ID             uuid.UUID `json:"id"`
	Platform       string    `json:"platform"`
	Handle         string    `json:"handle"`
	DisplayName    string    `json:"display_name,omitempty"`
	ProfileURL     string    `json:"profile_url,omitempty"`
	Email          string    `json:"email,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	Followers      *int64    `json:"followers,omitempty"`
	EngagementRate *float64  `json:"engagement_rate,omitempty"`
	NicheTags      []string  `json:"niche_tags,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toInfluencerResponse(i domain.Influencer) influencerResponse {
	return influencerResponse{
		ID:             i.ID,
		Platform:       i.Platform,
		Handle:         i.Handle,
		DisplayName:    i.DisplayName,
		ProfileURL:     i.ProfileURL,
		Email:          i.Email,
		Bio:            i.Bio,
		Followers:      i.Followers,
		EngagementRate: i.EngagementRate,
		NicheTags:      i.NicheTags,
		Notes:          i.Notes,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}

type createInfluencerRequest struct {
	Platform       string   `json:"platform"`
	Handle         string   `json:"handle"`
	DisplayName    string   `json:"display_name"`
	ProfileURL     string   `json:"profile_url"`
	Email          string   `json:"email"`
	Bio            string   `json:"bio"`
	Followers      *int64   `json:"followers"`
	EngagementRate *float64 `json:"engagement_rate"`
	NicheTags      []string `json:"niche_tags"`
}

func (r createInfluencerRequest) toPort() port.NewInfluencer {
	return port.NewInfluencer(r)
}

// profileUpdateRequest is a partial update; absent fields keep their value.
type profileUpdateRequest struct {
	DisplayName    *string  `json:"display_name"`
	ProfileURL     *string  `json:"profile_url"`
	Email          *string  `json:"email"`
	Bio            *string  `json:"bio"`
	Followers      *int64   `json:"followers"`
	EngagementRate *float64 `json:"engagement_rate"`
	NicheTags      []string `json:"niche_tags"`
	Notes          *string  `json:"notes"`
}

func (r profileUpdateRequest) toDomain() domain.ProfileUpdate {
	return domain.ProfileUpdate(r)
}

type campaignResponse struct {
	ID        uuid.UUID            `json:"id"`
	Name      string               `json:"name"`
	OfferType domain.OfferType     `json:"offer_type"`
	Rules     domain.CampaignRules `json:"rules"`
	CreatedAt time.Time            `json:"created_at"`
}

func toCampaignResponse(c domain.Campaign) campaignResponse {
	return campaignResponse{
		ID:        c.ID,
		Name:      c.Name,
		OfferType: c.OfferType,
		Rules:     c.Rules,
		CreatedAt: c.CreatedAt,
	}
}

type createCampaignRequest struct {
	Name      string               `json:"name"`
	OfferType string               `json:"offer_type"`
	Rules     domain.CampaignRules `json:"rules"`
}

type threadResponse struct {
	ID             uuid.UUID    `json:"id"`
	InfluencerID   uuid.UUID    `json:"influencer_id"`
	CampaignID     uuid.UUID    `json:"campaign_id"`
	Stage          domain.Stage `json:"stage"`
	LastContactAt  *time.Time   `json:"last_contact_at"`
	NextFollowUpAt *time.Time   `json:"next_followup_at"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func toThreadResponse(t domain.Thread) threadResponse {
	return threadResponse{
		ID:             t.ID,
		InfluencerID:   t.InfluencerID,
		CampaignID:     t.CampaignID,
		Stage:          t.Stage,
		LastContactAt:  t.LastContactAt,
		NextFollowUpAt: t.NextFollowUpAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

type createThreadRequest struct {
	InfluencerID string `json:"influencer_id"`
	CampaignID   string `json:"campaign_id"`
}

type createThreadsRequest struct {
	CampaignID    string   `json:"campaign_id"`
	InfluencerIDs []string `json:"influencer_ids"`
}

type bulkResponse struct {
	Created            int              `json:"created"`
	SkippedExisting    int              `json:"skipped_existing"`
	MissingInfluencers int              `json:"missing_influencers"`
	Threads            []threadResponse `json:"threads"`
}

type messageResponse struct {
	ID             uuid.UUID             `json:"id"`
	ThreadID       uuid.UUID             `json:"thread_id"`
	Direction      domain.Direction      `json:"direction"`
	Status         domain.MessageStatus  `json:"status"`
	Channel        domain.Channel        `json:"channel"`
	Kind           domain.MessageKind    `json:"kind"`
	Subject        string                `json:"subject"`
	Body           string                `json:"body"`
	ProviderMsgID  *string               `json:"provider_message_id"`
	GenerationMode domain.GenerationMode `json:"generation_mode,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	ApprovedAt     *time.Time            `json:"approved_at"`
	SentAt         *time.Time            `json:"sent_at"`
}

func toMessageResponse(m domain.Message) messageResponse {
	return messageResponse{
		ID:             m.ID,
		ThreadID:       m.ThreadID,
		Direction:      m.Direction,
		Status:         m.Status,
		Channel:        m.Channel,
		Kind:           m.Kind,
		Subject:        m.Subject,
		Body:           m.Body,
		ProviderMsgID:  m.ProviderMsgID,
		GenerationMode: m.GenerationMode,
		CreatedAt:      m.CreatedAt,
		ApprovedAt:     m.ApprovedAt,
		SentAt:         m.SentAt,
	}
}

type inboundReplyRequest struct {
	Subject    string     `json:"subject"`
	Body       string     `json:"body"`
	ReceivedAt *time.Time `json:"received_at"`
}

func mapSlice[T, R any](items []T, fn func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, it := range items {
		out = append(out, fn(it))
	}
	return out
}
