package mail

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"creator-outreach/internal/config/configs"
	"creator-outreach/internal/core/port"
)

// MockSender accepts every message without delivering it and returns a
// stub provider id.
type MockSender struct {
	logger *slog.Logger
}

func NewMockSender(logger *slog.Logger) *MockSender {
	return &MockSender{logger: logger}
}

func (s *MockSender) Send(ctx context.Context, p port.SendPayload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := "stub-" + uuid.NewString()
	s.logger.Debug("mock send",
		slog.String("to", p.To),
		slog.String("subject", p.Subject),
		slog.String("provider_msg_id", id),
	)
	return id, nil
}

// dialer is the part of gomail.Dialer the sender uses.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender delivers plain text email through an SMTP relay. The
// generated Message-ID doubles as the provider id, which is what replies
// reference in In-Reply-To.
type SMTPSender struct {
	dialer        dialer
	from          string
	fromName      string
	dryRun        bool
	testRecipient string
	logger        *slog.Logger
}

func NewSMTPSender(cfg configs.Mail, logger *slog.Logger) *SMTPSender {
	return &SMTPSender{
		dialer:        gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:          cfg.From,
		fromName:      cfg.FromName,
		dryRun:        cfg.DryRun,
		testRecipient: cfg.TestRecipient,
		logger:        logger,
	}
}

// Send builds and delivers the message. gomail has no context support, so
// cancellation is only checked before dialing; the engine bounds the call.
func (s *SMTPSender) Send(ctx context.Context, p port.SendPayload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(p.To) == "" {
		return "", fmt.Errorf("smtp: empty recipient")
	}

	msgID := fmt.Sprintf("<%s@%s>", uuid.NewString(), addressDomain(s.from))
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	to := p.To
	if s.dryRun {
		m.SetHeader("X-Original-To", p.To)
		to = s.testRecipient
	}
	if p.ToName != "" {
		m.SetAddressHeader("To", to, p.ToName)
	} else {
		m.SetHeader("To", to)
	}
	if p.ReplyTo != "" {
		m.SetHeader("Reply-To", p.ReplyTo)
	}
	m.SetHeader("Subject", p.Subject)
	m.SetHeader("Message-ID", msgID)
	m.SetBody("text/plain", p.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}
	s.logger.Info("email sent",
		slog.String("to", to),
		slog.Bool("dry_run", s.dryRun),
		slog.String("message_id", msgID),
	)
	return msgID, nil
}

func addressDomain(addr string) string {
	if _, d, ok := strings.Cut(addr, "@"); ok && d != "" {
		return d
	}
	return "localhost"
}
