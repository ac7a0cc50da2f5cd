package port

import (
	"context"

	"creator-outreach/internal/core/domain"
)

// DraftGenerator produces outbound message text. Implementations are
// chosen at startup; the engine never knows which one it has.
type DraftGenerator interface {
	// Generate returns a draft for the given context. An empty body is
	// treated as a failure by the engine.
	Generate(ctx context.Context, in DraftContext) (Draft, error)
}

// DraftContext is everything a generator may read.
type DraftContext struct {
	Kind          domain.MessageKind
	Campaign      domain.Campaign
	Influencer    domain.Influencer
	PriorMessages []domain.Message
}

// Draft is the generated content and how it was produced.
type Draft struct {
	Subject string
	Body    string
	Mode    domain.GenerationMode
}

// SendGateway delivers an approved message and returns the provider's id.
type SendGateway interface {
	Send(ctx context.Context, p SendPayload) (string, error)
}

// SendPayload is the provider-neutral email to deliver.
type SendPayload struct {
	To      string
	ToName  string
	Subject string
	Body    string
	ReplyTo string
}

// EventPublisher announces committed thread changes to other systems.
// Publishing is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.ThreadEvent) error
}
