package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"creator-outreach/internal/core/domain"
)

const uniqueViolation = "23505"

// threadTx is the locked view of one thread inside a pgx transaction.
type threadTx struct {
	tx     pgx.Tx
	thread domain.Thread
}

func (t *threadTx) Thread() *domain.Thread {
	out := t.thread
	return &out
}

func (t *threadTx) Influencer(ctx context.Context) (*domain.Influencer, error) {
	inf, err := scanInfluencer(t.tx.QueryRow(ctx, `SELECT `+influencerColumns+` FROM influencers WHERE id = $1`, t.thread.InfluencerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "influencer", ID: t.thread.InfluencerID}
	}
	if err != nil {
		return nil, err
	}
	return &inf, nil
}

func (t *threadTx) Campaign(ctx context.Context) (*domain.Campaign, error) {
	c, err := scanCampaign(t.tx.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, t.thread.CampaignID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "campaign", ID: t.thread.CampaignID}
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (t *threadTx) Messages(ctx context.Context) ([]domain.Message, error) {
	return threadMessages(ctx, t.tx, t.thread.ID, 0)
}

func (t *threadTx) Message(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	m, err := scanMessage(t.tx.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages
WHERE id = $1 AND thread_id = $2`, id, t.thread.ID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "message", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (t *threadTx) HasPendingOutbound(ctx context.Context) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (
    SELECT 1 FROM messages
    WHERE thread_id = $1 AND direction = 'outbound' AND status IN ('draft', 'approved'))`, t.thread.ID).Scan(&exists)
	return exists, err
}

func (t *threadTx) HasInboundAfter(ctx context.Context, after *time.Time) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (
    SELECT 1 FROM messages
    WHERE thread_id = $1 AND direction = 'inbound' AND ($2::timestamptz IS NULL OR created_at > $2))`,
		t.thread.ID, after).Scan(&exists)
	return exists, err
}

// InsertMessage adds a message to the locked thread. A second unresolved
// outbound message trips the partial unique index and is reported as a
// guard violation.
func (t *threadTx) InsertMessage(ctx context.Context, m *domain.Message) error {
	m.ThreadID = t.thread.ID
	_, err := t.tx.Exec(ctx, `INSERT INTO messages (`+messageColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		m.ID, m.ThreadID, m.Direction.String(), m.Status.String(), m.Channel.String(), m.Kind.String(),
		m.Subject, m.Body, m.ProviderMsgID, string(m.GenerationMode), m.CreatedAt, m.ApprovedAt, m.SentAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &domain.GuardViolationError{
			Op:     "insert_message",
			Entity: "thread",
			ID:     t.thread.ID,
			State:  t.thread.Stage.String(),
			Reason: "an unresolved draft already exists",
		}
	}
	return err
}

func (t *threadTx) UpdateMessage(ctx context.Context, m *domain.Message) error {
	tag, err := t.tx.Exec(ctx, `UPDATE messages SET status = $3, subject = $4, body = $5, provider_msg_id = $6,
    approved_at = $7, sent_at = $8 WHERE id = $1 AND thread_id = $2`,
		m.ID, t.thread.ID, m.Status.String(), m.Subject, m.Body, m.ProviderMsgID, m.ApprovedAt, m.SentAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Entity: "message", ID: m.ID}
	}
	return nil
}

func (t *threadTx) UpdateThread(ctx context.Context, th *domain.Thread) error {
	_, err := t.tx.Exec(ctx, `UPDATE outreach_threads SET stage = $2, last_contact_at = $3, next_followup_at = $4,
    updated_at = $5 WHERE id = $1`,
		t.thread.ID, th.Stage.String(), th.LastContactAt, th.NextFollowUpAt, th.UpdatedAt)
	if err != nil {
		return err
	}
	t.thread = *th
	return nil
}
