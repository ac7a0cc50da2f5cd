package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"creator-outreach/internal/core/domain"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	influencerColumns = `id, platform, handle, display_name, profile_url, email, bio, followers,
        engagement_rate, niche_tags, notes, created_at, updated_at`
	campaignColumns = `id, name, offer_type, rules, created_at`
	threadColumns   = `id, influencer_id, campaign_id, stage, last_contact_at, next_followup_at,
        created_at, updated_at`
	messageColumns = `id, thread_id, direction, status, channel, kind, subject, body,
        provider_msg_id, generation_mode, created_at, approved_at, sent_at`
)

func scanInfluencer(row pgx.Row) (domain.Influencer, error) {
	var (
		inf  domain.Influencer
		tags []byte
	)
	err := row.Scan(
		&inf.ID,
		&inf.Platform,
		&inf.Handle,
		&inf.DisplayName,
		&inf.ProfileURL,
		&inf.Email,
		&inf.Bio,
		&inf.Followers,
		&inf.EngagementRate,
		&tags,
		&inf.Notes,
		&inf.CreatedAt,
		&inf.UpdatedAt,
	)
	if err != nil {
		return inf, err
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &inf.NicheTags); err != nil {
			return inf, fmt.Errorf("decode niche tags: %w", err)
		}
	}
	return inf, nil
}

func scanCampaign(row pgx.Row) (domain.Campaign, error) {
	var (
		c     domain.Campaign
		offer string
		rules []byte
	)
	if err := row.Scan(&c.ID, &c.Name, &offer, &rules, &c.CreatedAt); err != nil {
		return c, err
	}
	c.OfferType = domain.OfferType(offer)
	if len(rules) > 0 {
		if err := json.Unmarshal(rules, &c.Rules); err != nil {
			return c, fmt.Errorf("decode campaign rules: %w", err)
		}
	}
	return c, nil
}

func scanThread(row pgx.Row) (domain.Thread, error) {
	var (
		t     domain.Thread
		stage string
	)
	err := row.Scan(
		&t.ID,
		&t.InfluencerID,
		&t.CampaignID,
		&stage,
		&t.LastContactAt,
		&t.NextFollowUpAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return t, err
	}
	if t.Stage, err = domain.ParseStage(stage); err != nil {
		return t, err
	}
	normaliseThreadTimes(&t)
	return t, nil
}

func scanMessage(row pgx.Row) (domain.Message, error) {
	var (
		m                                domain.Message
		direction, status, channel, kind string
		mode                             string
	)
	err := row.Scan(
		&m.ID,
		&m.ThreadID,
		&direction,
		&status,
		&channel,
		&kind,
		&m.Subject,
		&m.Body,
		&m.ProviderMsgID,
		&mode,
		&m.CreatedAt,
		&m.ApprovedAt,
		&m.SentAt,
	)
	if err != nil {
		return m, err
	}
	if m.Direction, err = domain.ParseDirection(direction); err != nil {
		return m, err
	}
	if m.Status, err = domain.ParseMessageStatus(status); err != nil {
		return m, err
	}
	if m.Channel, err = domain.ParseChannel(channel); err != nil {
		return m, err
	}
	if m.Kind, err = domain.ParseMessageKind(kind); err != nil {
		return m, err
	}
	m.GenerationMode = domain.GenerationMode(mode)
	m.CreatedAt = m.CreatedAt.UTC()
	m.ApprovedAt = utcPtr(m.ApprovedAt)
	m.SentAt = utcPtr(m.SentAt)
	return m, nil
}

func collectMessages(rows pgx.Rows) ([]domain.Message, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Message, error) {
		return scanMessage(row)
	})
}

func collectThreads(rows pgx.Rows) ([]domain.Thread, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Thread, error) {
		return scanThread(row)
	})
}

// normaliseThreadTimes converts the session time zone pgx reports back to UTC.
func normaliseThreadTimes(t *domain.Thread) {
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	t.LastContactAt = utcPtr(t.LastContactAt)
	t.NextFollowUpAt = utcPtr(t.NextFollowUpAt)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func jsonTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(tags)
}
