// Package amqp publishes thread lifecycle events to a RabbitMQ topic
// exchange. Each event is a persistent JSON message routed by its type, so
// consumers can bind to e.g. "message.*" or "reply.recorded".
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"creator-outreach/internal/config/configs"
	"creator-outreach/internal/core/domain"
)

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Publisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	ch       channel
	exchange string
}

// NewPublisher dials the broker and declares a durable topic exchange.
func NewPublisher(cfg configs.AMQP) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: cfg.Exchange}, nil
}

// Publish sends ev with its type as routing key.
func (p *Publisher) Publish(ctx context.Context, ev domain.ThreadEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx,
		p.exchange,
		string(ev.Type),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.ThreadID.String() + ":" + string(ev.Type),
			Timestamp:    ev.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// Healthy reports whether the broker connection is still open.
func (p *Publisher) Healthy() bool {
	return p.conn != nil && !p.conn.IsClosed()
}

func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}

// NopPublisher drops every event. It is used when AMQP is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.ThreadEvent) error { return nil }
