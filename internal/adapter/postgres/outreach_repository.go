package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"creator-outreach/internal/core/domain"
	"creator-outreach/internal/core/port"
)

// OutreachRepository implements port.OutreachRepository using pgxpool for
// PostgreSQL. Thread locks are row locks taken with SELECT ... FOR UPDATE
// and held for the lifetime of one transaction.
type OutreachRepository struct {
	pool *pgxpool.Pool
}

var _ port.OutreachRepository = (*OutreachRepository)(nil)

// NewOutreachRepository returns a new repository instance.
func NewOutreachRepository(pool *pgxpool.Pool) *OutreachRepository {
	return &OutreachRepository{pool: pool}
}

func (r *OutreachRepository) CreateInfluencer(ctx context.Context, inf *domain.Influencer) error {
	tags, err := jsonTags(inf.NicheTags)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO influencers (`+influencerColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		inf.ID, inf.Platform, inf.Handle, inf.DisplayName, inf.ProfileURL, inf.Email, inf.Bio,
		inf.Followers, inf.EngagementRate, tags, inf.Notes, inf.CreatedAt, inf.UpdatedAt)
	return err
}

func (r *OutreachRepository) GetInfluencer(ctx context.Context, id uuid.UUID) (*domain.Influencer, error) {
	inf, err := scanInfluencer(r.pool.QueryRow(ctx, `SELECT `+influencerColumns+` FROM influencers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "influencer", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &inf, nil
}

func (r *OutreachRepository) ListInfluencersByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Influencer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+influencerColumns+` FROM influencers
WHERE id = ANY($1::uuid[]) ORDER BY created_at, id`, uuidStrings(ids))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Influencer, error) {
		return scanInfluencer(row)
	})
}

// ListInfluencers returns influencers newest first.
func (r *OutreachRepository) ListInfluencers(ctx context.Context, filter port.InfluencerFilter) ([]domain.Influencer, error) {
	query := `SELECT ` + influencerColumns + ` FROM influencers
WHERE ($1 = '' OR platform = $1)
  AND ($2::boolean IS NULL OR (email <> '') = $2::boolean)
ORDER BY created_at DESC, id DESC
LIMIT NULLIF($3::int, 0)`
	rows, err := r.pool.Query(ctx, query, filter.Platform, filter.HasEmail, filter.Limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Influencer, error) {
		return scanInfluencer(row)
	})
}

// UpdateInfluencer applies a profile refresh under a row lock so that
// concurrent refreshes do not lose fields.
func (r *OutreachRepository) UpdateInfluencer(ctx context.Context, id uuid.UUID, upd domain.ProfileUpdate) (_ *domain.Influencer, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		} else {
			err = tx.Commit(context.WithoutCancel(ctx))
		}
	}()

	inf, err := scanInfluencer(tx.QueryRow(ctx, `SELECT `+influencerColumns+` FROM influencers WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "influencer", ID: id}
	}
	if err != nil {
		return nil, err
	}
	upd.Apply(&inf)
	inf.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

	tags, err := jsonTags(inf.NicheTags)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(ctx, `UPDATE influencers SET display_name = $2, profile_url = $3, email = $4, bio = $5,
    followers = $6, engagement_rate = $7, niche_tags = $8, notes = $9, updated_at = $10 WHERE id = $1`,
		inf.ID, inf.DisplayName, inf.ProfileURL, inf.Email, inf.Bio,
		inf.Followers, inf.EngagementRate, tags, inf.Notes, inf.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &inf, nil
}

func (r *OutreachRepository) CreateCampaign(ctx context.Context, c *domain.Campaign) error {
	rules, err := json.Marshal(c.Rules)
	if err != nil {
		return fmt.Errorf("encode campaign rules: %w", err)
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO campaigns (`+campaignColumns+`) VALUES ($1,$2,$3,$4,$5)`,
		c.ID, c.Name, string(c.OfferType), rules, c.CreatedAt)
	return err
}

func (r *OutreachRepository) GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	c, err := scanCampaign(r.pool.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "campaign", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *OutreachRepository) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+campaignColumns+` FROM campaigns ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Campaign, error) {
		return scanCampaign(row)
	})
}

func (r *OutreachRepository) CreateThread(ctx context.Context, t *domain.Thread) error {
	return insertThread(ctx, r.pool, t)
}

func insertThread(ctx context.Context, q querier, t *domain.Thread) error {
	_, err := q.Exec(ctx, `INSERT INTO outreach_threads (`+threadColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		t.ID, t.InfluencerID, t.CampaignID, t.Stage.String(), t.LastContactAt, t.NextFollowUpAt, t.CreatedAt, t.UpdatedAt)
	return err
}

// CreateThreadIfAbsent serialises check-and-insert per pair with a
// transaction scoped advisory lock, so no unique constraint is needed on
// the table and the allow policy keeps working.
func (r *OutreachRepository) CreateThreadIfAbsent(ctx context.Context, t *domain.Thread) (_ *domain.Thread, _ bool, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		} else {
			err = tx.Commit(context.WithoutCancel(ctx))
		}
	}()

	pair := t.InfluencerID.String() + "/" + t.CampaignID.String()
	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, pair); err != nil {
		return nil, false, fmt.Errorf("lock pair: %w", err)
	}

	existing, err := scanThread(tx.QueryRow(ctx, `SELECT `+threadColumns+` FROM outreach_threads
WHERE influencer_id = $1 AND campaign_id = $2 ORDER BY created_at, id LIMIT 1`, t.InfluencerID, t.CampaignID))
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	if err = insertThread(ctx, tx, t); err != nil {
		return nil, false, err
	}
	created := *t
	return &created, true, nil
}

func (r *OutreachRepository) GetThread(ctx context.Context, id uuid.UUID) (*domain.Thread, error) {
	t, err := scanThread(r.pool.QueryRow(ctx, `SELECT `+threadColumns+` FROM outreach_threads WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "thread", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListThreads returns threads with the soonest follow-up first, then the
// most recently contacted.
func (r *OutreachRepository) ListThreads(ctx context.Context, filter port.ThreadFilter) ([]domain.Thread, error) {
	stage := ""
	if filter.Stage != 0 {
		stage = filter.Stage.String()
	}
	rows, err := r.pool.Query(ctx, `SELECT `+threadColumns+` FROM outreach_threads
WHERE ($1 = '' OR stage = $1)
ORDER BY next_followup_at ASC NULLS LAST, last_contact_at DESC NULLS LAST, id DESC
LIMIT NULLIF($2::int, 0)`, stage, filter.Limit)
	if err != nil {
		return nil, err
	}
	return collectThreads(rows)
}

func (r *OutreachRepository) ThreadInfluencersForCampaign(ctx context.Context, campaignID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool)
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT influencer_id FROM outreach_threads
WHERE campaign_id = $1 AND influencer_id = ANY($2::uuid[])`, campaignID, uuidStrings(ids))
	if err != nil {
		return nil, err
	}
	linked, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, err
	}
	for _, id := range linked {
		out[id] = true
	}
	return out, nil
}

func (r *OutreachRepository) SelectNewThreadIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM outreach_threads
WHERE stage = $1 ORDER BY created_at, id LIMIT NULLIF($2::int, 0)`, domain.StageNew.String(), limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func (r *OutreachRepository) SelectDueFollowUpIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM outreach_threads
WHERE stage = $1 AND next_followup_at IS NOT NULL AND next_followup_at <= $2
ORDER BY next_followup_at, id LIMIT NULLIF($3::int, 0)`, domain.StageWaiting.String(), now, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func (r *OutreachRepository) GetMessage(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	m, err := scanMessage(r.pool.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "message", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *OutreachRepository) ListMessages(ctx context.Context, threadID uuid.UUID, limit int) ([]domain.Message, error) {
	return threadMessages(ctx, r.pool, threadID, limit)
}

func threadMessages(ctx context.Context, q querier, threadID uuid.UUID, limit int) ([]domain.Message, error) {
	rows, err := q.Query(ctx, `SELECT `+messageColumns+` FROM messages
WHERE thread_id = $1 ORDER BY created_at, id LIMIT NULLIF($2::int, 0)`, threadID, limit)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

// WithThreadLock opens a transaction, locks the thread row and hands the
// transaction to fn. The transaction commits when fn returns nil and rolls
// back otherwise.
func (r *OutreachRepository) WithThreadLock(ctx context.Context, threadID uuid.UUID, fn func(context.Context, port.ThreadTx) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		} else if err = tx.Commit(context.WithoutCancel(ctx)); err != nil {
			err = fmt.Errorf("commit tx: %w", err)
		}
	}()

	t, err := scanThread(tx.QueryRow(ctx, `SELECT `+threadColumns+` FROM outreach_threads WHERE id = $1 FOR UPDATE`, threadID))
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.NotFoundError{Entity: "thread", ID: threadID}
	}
	if err != nil {
		return fmt.Errorf("lock thread: %w", err)
	}
	return fn(ctx, &threadTx{tx: tx, thread: t})
}
