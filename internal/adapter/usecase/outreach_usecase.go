package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"creator-outreach/internal/config/configs"
	"creator-outreach/internal/core/domain"
	"creator-outreach/internal/core/port"
	"creator-outreach/internal/metrics"
)

const (
	defaultThreadListLimit = 200
	maxThreadListLimit     = 500
	messageListLimit       = 500
	maxBulkInfluencers     = 500
)

// Policy carries the engine settings that come from configuration.
type Policy struct {
	// FollowUpDelay is added to the send time to schedule the next
	// follow-up draft.
	FollowUpDelay time.Duration
	// Uniqueness decides how CreateThread treats an existing pair.
	Uniqueness configs.ThreadUniqueness
	// GenerateTimeout and SendTimeout bound the external calls. A call
	// that does not return in time is abandoned and reported as a
	// generation or send error.
	GenerateTimeout time.Duration
	SendTimeout     time.Duration
	// ReplyDomain, when set, gives every sent message the reply address
	// replies+<thread id>@ReplyDomain.
	ReplyDomain string
}

// PolicyFromConfig builds a Policy from the engine and mail sections.
func PolicyFromConfig(engine configs.Engine, mail configs.Mail) Policy {
	return Policy{
		FollowUpDelay:   engine.FollowUpDelay(),
		Uniqueness:      engine.ThreadUniqueness,
		GenerateTimeout: engine.GenerateTimeout,
		SendTimeout:     engine.SendTimeout,
		ReplyDomain:     mail.ReplyDomain,
	}
}

// OutreachUseCase is the workflow engine. It owns the thread and message
// state machines and is the only caller of the draft generator and the send
// gateway. Every mutation runs inside the repository's per-thread lock, so
// guards are evaluated against the state the write is applied to.
type OutreachUseCase struct {
	repo      port.OutreachRepository
	generator port.DraftGenerator
	sender    port.SendGateway
	events    port.EventPublisher
	logger    *slog.Logger
	policy    Policy
	now       func() time.Time
}

var _ port.OutreachUseCase = (*OutreachUseCase)(nil)

// Option customises an OutreachUseCase.
type Option func(*OutreachUseCase)

// WithEvents sets the publisher for committed thread changes.
func WithEvents(p port.EventPublisher) Option {
	return func(u *OutreachUseCase) { u.events = p }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(u *OutreachUseCase) { u.logger = l }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(u *OutreachUseCase) { u.now = now }
}

// NewOutreachUseCase creates the engine. Events are dropped and logs
// discarded unless the corresponding options are given.
func NewOutreachUseCase(repo port.OutreachRepository, generator port.DraftGenerator, sender port.SendGateway, policy Policy, opts ...Option) *OutreachUseCase {
	u := &OutreachUseCase{
		repo:      repo,
		generator: generator,
		sender:    sender,
		events:    nopPublisher{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		policy:    policy,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// clock returns the current time in the precision the stores persist.
func (u *OutreachUseCase) clock() time.Time {
	return u.now().UTC().Truncate(time.Microsecond)
}

// CreateThread opens a thread in stage new after checking both references.
func (u *OutreachUseCase) CreateThread(ctx context.Context, influencerID, campaignID uuid.UUID) (*domain.Thread, error) {
	if _, err := u.repo.GetInfluencer(ctx, influencerID); err != nil {
		return nil, err
	}
	if _, err := u.repo.GetCampaign(ctx, campaignID); err != nil {
		return nil, err
	}

	t := u.newThread(influencerID, campaignID)
	switch u.policy.Uniqueness {
	case configs.UniquenessReject, configs.UniquenessReuse:
		existing, created, err := u.repo.CreateThreadIfAbsent(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("create thread: %w", err)
		}
		if !created {
			if u.policy.Uniqueness == configs.UniquenessReject {
				return nil, &domain.DuplicateThreadError{
					InfluencerID: influencerID,
					CampaignID:   campaignID,
					ExistingID:   existing.ID,
				}
			}
			return existing, nil
		}
	default:
		if err := u.repo.CreateThread(ctx, t); err != nil {
			return nil, fmt.Errorf("create thread: %w", err)
		}
	}

	u.publish(ctx, domain.EventThreadCreated, t, nil)
	return t, nil
}

// CreateThreads opens one thread per influencer that is not yet linked to
// the campaign. Duplicate ids in the input are counted once.
func (u *OutreachUseCase) CreateThreads(ctx context.Context, campaignID uuid.UUID, influencerIDs []uuid.UUID) (*port.BulkResult, error) {
	ids := dedupe(influencerIDs)
	if len(ids) == 0 || len(ids) > maxBulkInfluencers {
		return nil, &domain.ValidationError{
			Field:  "influencer_ids",
			Reason: fmt.Sprintf("must contain between 1 and %d ids", maxBulkInfluencers),
		}
	}
	if _, err := u.repo.GetCampaign(ctx, campaignID); err != nil {
		return nil, err
	}

	found, err := u.repo.ListInfluencersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load influencers: %w", err)
	}
	linked, err := u.repo.ThreadInfluencersForCampaign(ctx, campaignID, ids)
	if err != nil {
		return nil, fmt.Errorf("load existing threads: %w", err)
	}

	res := &port.BulkResult{MissingInfluencers: len(ids) - len(found)}
	for _, inf := range found {
		if linked[inf.ID] {
			res.SkippedExisting++
			continue
		}
		t := u.newThread(inf.ID, campaignID)
		// another caller may have linked the pair since the lookup above
		_, created, err := u.repo.CreateThreadIfAbsent(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("create thread: %w", err)
		}
		if !created {
			res.SkippedExisting++
			continue
		}
		res.Created++
		res.Threads = append(res.Threads, *t)
		u.publish(ctx, domain.EventThreadCreated, t, nil)
	}
	return res, nil
}

func (u *OutreachUseCase) newThread(influencerID, campaignID uuid.UUID) *domain.Thread {
	now := u.clock()
	return &domain.Thread{
		ID:           uuid.New(),
		InfluencerID: influencerID,
		CampaignID:   campaignID,
		Stage:        domain.StageNew,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// RequestDraft generates the initial draft of a thread in stage new.
func (u *OutreachUseCase) RequestDraft(ctx context.Context, threadID uuid.UUID) (*domain.Message, error) {
	return u.draft(ctx, threadID, domain.KindInitial)
}

// RequestFollowUp generates a follow-up draft for a waiting thread whose
// follow-up time has come and which got no reply since the last contact.
func (u *OutreachUseCase) RequestFollowUp(ctx context.Context, threadID uuid.UUID) (*domain.Message, error) {
	return u.draft(ctx, threadID, domain.KindFollowUp)
}

func (u *OutreachUseCase) draft(ctx context.Context, threadID uuid.UUID, kind domain.MessageKind) (*domain.Message, error) {
	event := domain.EventInitialDraft
	if kind == domain.KindFollowUp {
		event = domain.EventFollowUpDraft
	}

	var (
		msg    *domain.Message
		thread *domain.Thread
	)
	err := u.repo.WithThreadLock(ctx, threadID, func(ctx context.Context, tx port.ThreadTx) error {
		t := tx.Thread()
		now := u.clock()

		next, err := t.Stage.Next(event)
		if err != nil {
			return withID(err, threadID)
		}
		if kind == domain.KindFollowUp {
			if !t.FollowUpDue(now) {
				return guard(event, "thread", threadID, t.Stage, "follow-up not due yet")
			}
			replied, err := tx.HasInboundAfter(ctx, t.LastContactAt)
			if err != nil {
				return fmt.Errorf("check inbound messages: %w", err)
			}
			if replied {
				return guard(event, "thread", threadID, t.Stage, "reply received since last contact")
			}
		}
		pending, err := tx.HasPendingOutbound(ctx)
		if err != nil {
			return fmt.Errorf("check pending drafts: %w", err)
		}
		if pending {
			return guard(event, "thread", threadID, t.Stage, "an unresolved draft already exists")
		}

		in, err := u.draftContext(ctx, tx, kind)
		if err != nil {
			return err
		}
		d, err := callWithTimeout(ctx, u.policy.GenerateTimeout, func(ctx context.Context) (port.Draft, error) {
			return u.generator.Generate(ctx, in)
		})
		if err == nil && strings.TrimSpace(d.Body) == "" {
			err = errors.New("generator returned an empty body")
		}
		if err != nil {
			return &domain.GenerationError{ThreadID: threadID, Err: err}
		}

		msg = &domain.Message{
			ID:             uuid.New(),
			ThreadID:       threadID,
			Direction:      domain.DirectionOutbound,
			Status:         domain.StatusDraft,
			Channel:        domain.ChannelEmail,
			Kind:           kind,
			Subject:        d.Subject,
			Body:           d.Body,
			GenerationMode: d.Mode,
			CreatedAt:      now,
		}
		if err := tx.InsertMessage(ctx, msg); err != nil {
			return fmt.Errorf("insert draft: %w", err)
		}
		t.Stage = next
		t.UpdatedAt = now
		if err := tx.UpdateThread(ctx, t); err != nil {
			return fmt.Errorf("update thread: %w", err)
		}
		thread = t
		return nil
	})
	if err != nil {
		u.recordFailure(kind.String(), err)
		return nil, err
	}

	metrics.RecordDraft(kind.String(), string(msg.GenerationMode))
	u.logger.Info("draft created",
		slog.String("thread_id", threadID.String()),
		slog.String("message_id", msg.ID.String()),
		slog.String("kind", kind.String()),
	)
	u.publish(ctx, domain.EventDraftCreated, thread, &msg.ID)
	return msg, nil
}

// draftContext loads what the generator needs for the locked thread.
func (u *OutreachUseCase) draftContext(ctx context.Context, tx port.ThreadTx, kind domain.MessageKind) (port.DraftContext, error) {
	inf, err := tx.Influencer(ctx)
	if err != nil {
		return port.DraftContext{}, fmt.Errorf("load influencer: %w", err)
	}
	camp, err := tx.Campaign(ctx)
	if err != nil {
		return port.DraftContext{}, fmt.Errorf("load campaign: %w", err)
	}
	prior, err := tx.Messages(ctx)
	if err != nil {
		return port.DraftContext{}, fmt.Errorf("load messages: %w", err)
	}
	return port.DraftContext{
		Kind:          kind,
		Campaign:      *camp,
		Influencer:    *inf,
		PriorMessages: prior,
	}, nil
}

// Approve moves a draft to approved. The thread stage does not change.
func (u *OutreachUseCase) Approve(ctx context.Context, messageID uuid.UUID) (*domain.Message, error) {
	ref, err := u.repo.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	var (
		msg    *domain.Message
		thread *domain.Thread
	)
	err = u.repo.WithThreadLock(ctx, ref.ThreadID, func(ctx context.Context, tx port.ThreadTx) error {
		m, err := tx.Message(ctx, messageID)
		if err != nil {
			return err
		}
		next, err := m.Status.Next(domain.EventApprove)
		if err != nil {
			return withID(err, messageID)
		}
		now := u.clock()
		m.Status = next
		m.ApprovedAt = &now
		if err := tx.UpdateMessage(ctx, m); err != nil {
			return fmt.Errorf("update message: %w", err)
		}
		msg, thread = m, tx.Thread()
		return nil
	})
	if err != nil {
		u.recordFailure("approve", err)
		return nil, err
	}

	u.logger.Info("message approved", slog.String("message_id", messageID.String()))
	u.publish(ctx, domain.EventMessageApproved, thread, &msg.ID)
	return msg, nil
}

// Send delivers an approved message. The gateway is called while the thread
// is locked so two concurrent sends of the same message cannot both reach
// the provider.
func (u *OutreachUseCase) Send(ctx context.Context, messageID uuid.UUID) (*domain.Message, error) {
	ref, err := u.repo.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	var (
		msg    *domain.Message
		thread *domain.Thread
	)
	err = u.repo.WithThreadLock(ctx, ref.ThreadID, func(ctx context.Context, tx port.ThreadTx) error {
		m, err := tx.Message(ctx, messageID)
		if err != nil {
			return err
		}
		nextStatus, err := m.Status.Next(domain.EventSend)
		if err != nil {
			return withID(err, messageID)
		}
		t := tx.Thread()
		nextStage, err := t.Stage.Next(domain.EventSent)
		if err != nil {
			return withID(err, t.ID)
		}

		inf, err := tx.Influencer(ctx)
		if err != nil {
			return fmt.Errorf("load influencer: %w", err)
		}
		if strings.TrimSpace(inf.Email) == "" {
			return &domain.ValidationError{Field: "email", Reason: "influencer has no contact email"}
		}

		payload := port.SendPayload{
			To:      inf.Email,
			ToName:  inf.Name(),
			Subject: m.Subject,
			Body:    m.Body,
			ReplyTo: u.replyTo(t.ID),
		}
		providerID, err := callWithTimeout(ctx, u.policy.SendTimeout, func(ctx context.Context) (string, error) {
			return u.sender.Send(ctx, payload)
		})
		if err != nil {
			return &domain.SendError{MessageID: messageID, Err: err}
		}
		// The email is out; a caller hang-up must not discard the record.
		ctx = context.WithoutCancel(ctx)

		now := u.clock()
		m.Status = nextStatus
		m.ProviderMsgID = &providerID
		m.SentAt = &now
		if err := tx.UpdateMessage(ctx, m); err != nil {
			return fmt.Errorf("update message: %w", err)
		}

		t.Stage = nextStage
		t.LastContactAt = &now
		if nextStage == domain.StageWaiting {
			followUp := now.Add(u.policy.FollowUpDelay)
			t.NextFollowUpAt = &followUp
		}
		t.UpdatedAt = now
		if err := tx.UpdateThread(ctx, t); err != nil {
			return fmt.Errorf("update thread: %w", err)
		}
		msg, thread = m, t
		return nil
	})
	if err != nil {
		u.recordFailure("send", err)
		return nil, err
	}

	metrics.RecordSend()
	u.logger.Info("message sent",
		slog.String("thread_id", thread.ID.String()),
		slog.String("message_id", messageID.String()),
		slog.String("provider_msg_id", *msg.ProviderMsgID),
	)
	u.publish(ctx, domain.EventMessageSent, thread, &msg.ID)
	return msg, nil
}

func (u *OutreachUseCase) replyTo(threadID uuid.UUID) string {
	if u.policy.ReplyDomain == "" {
		return ""
	}
	return fmt.Sprintf("replies+%s@%s", threadID, u.policy.ReplyDomain)
}

// RecordInboundReply stores a reply and moves the thread to replied from any
// stage. A pending draft is left untouched.
func (u *OutreachUseCase) RecordInboundReply(ctx context.Context, threadID uuid.UUID, reply port.InboundReply) (*domain.Message, error) {
	body := strings.TrimSpace(reply.Body)
	if body == "" {
		return nil, &domain.ValidationError{Field: "body", Reason: "must not be empty"}
	}

	var (
		msg    *domain.Message
		thread *domain.Thread
	)
	err := u.repo.WithThreadLock(ctx, threadID, func(ctx context.Context, tx port.ThreadTx) error {
		t := tx.Thread()
		now := u.clock()
		received := now
		if !reply.ReceivedAt.IsZero() {
			received = clampTime(reply.ReceivedAt.UTC().Truncate(time.Microsecond), t.CreatedAt, now)
		}

		next, err := t.Stage.Next(domain.EventReply)
		if err != nil {
			return withID(err, threadID)
		}

		msg = &domain.Message{
			ID:        uuid.New(),
			ThreadID:  threadID,
			Direction: domain.DirectionInbound,
			Status:    domain.StatusReceived,
			Channel:   domain.ChannelEmail,
			Kind:      domain.KindReply,
			Subject:   strings.TrimSpace(reply.Subject),
			Body:      body,
			CreatedAt: received,
		}
		if err := tx.InsertMessage(ctx, msg); err != nil {
			return fmt.Errorf("insert reply: %w", err)
		}

		t.Stage = next
		if t.LastContactAt == nil || received.After(*t.LastContactAt) {
			t.LastContactAt = &received
		}
		t.NextFollowUpAt = nil
		t.UpdatedAt = now
		if err := tx.UpdateThread(ctx, t); err != nil {
			return fmt.Errorf("update thread: %w", err)
		}
		thread = t
		return nil
	})
	if err != nil {
		u.recordFailure("reply", err)
		return nil, err
	}

	metrics.RecordReply()
	u.logger.Info("reply recorded",
		slog.String("thread_id", threadID.String()),
		slog.String("message_id", msg.ID.String()),
	)
	u.publish(ctx, domain.EventReplyRecorded, thread, &msg.ID)
	return msg, nil
}

func (u *OutreachUseCase) GetThread(ctx context.Context, id uuid.UUID) (*domain.Thread, error) {
	return u.repo.GetThread(ctx, id)
}

// ListThreads lists threads, soonest follow-up first. The limit defaults to
// 200 and is capped at 500.
func (u *OutreachUseCase) ListThreads(ctx context.Context, filter port.ThreadFilter) ([]domain.Thread, error) {
	if filter.Stage != 0 && !filter.Stage.Valid() {
		return nil, &domain.ValidationError{Field: "stage", Reason: "unknown stage"}
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultThreadListLimit
	}
	if filter.Limit > maxThreadListLimit {
		filter.Limit = maxThreadListLimit
	}
	return u.repo.ListThreads(ctx, filter)
}

// ListMessages returns the thread's messages oldest first.
func (u *OutreachUseCase) ListMessages(ctx context.Context, threadID uuid.UUID) ([]domain.Message, error) {
	if _, err := u.repo.GetThread(ctx, threadID); err != nil {
		return nil, err
	}
	return u.repo.ListMessages(ctx, threadID, messageListLimit)
}

func (u *OutreachUseCase) GetMessage(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	return u.repo.GetMessage(ctx, id)
}

func (u *OutreachUseCase) publish(ctx context.Context, typ domain.EventType, t *domain.Thread, messageID *uuid.UUID) {
	ev := domain.ThreadEvent{
		Type:       typ,
		ThreadID:   t.ID,
		MessageID:  messageID,
		Stage:      t.Stage,
		OccurredAt: u.clock(),
	}
	if err := u.events.Publish(ctx, ev); err != nil {
		u.logger.Warn("publish thread event",
			slog.String("type", string(typ)),
			slog.String("thread_id", t.ID.String()),
			slog.Any("error", err),
		)
	}
}

func (u *OutreachUseCase) recordFailure(op string, err error) {
	switch {
	case errors.Is(err, domain.ErrGuardViolation):
		metrics.RecordGuardViolation(op)
	case errors.Is(err, domain.ErrGeneration):
		metrics.RecordGenerationFailure(op)
	case errors.Is(err, domain.ErrSend):
		metrics.RecordSendFailure()
	}
}

func guard(event domain.StageEvent, entity string, id uuid.UUID, stage domain.Stage, reason string) error {
	return &domain.GuardViolationError{
		Op:     event.String(),
		Entity: entity,
		ID:     id,
		State:  stage.String(),
		Reason: reason,
	}
}

// withID fills in the entity id of a guard violation raised by a transition
// table.
func withID(err error, id uuid.UUID) error {
	var gv *domain.GuardViolationError
	if errors.As(err, &gv) && gv.ID == uuid.Nil {
		gv.ID = id
	}
	return err
}

// callWithTimeout runs fn with a deadline and stops waiting once it passes,
// even when fn ignores its context. With a positive d the call is detached
// from the caller's cancellation: an external side effect that completes
// within d is always reported, so a client hang-up cannot lose it.
func callWithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), d)
		defer cancel()
	}
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v, err}
	}()
	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		select {
		case r := <-done:
			return r.v, r.err
		default:
		}
		var zero T
		return zero, ctx.Err()
	}
}

// clampTime bounds t to [lo, hi].
func clampTime(t, lo, hi time.Time) time.Time {
	if t.Before(lo) {
		return lo
	}
	if t.After(hi) {
		return hi
	}
	return t
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.ThreadEvent) error { return nil }
