package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a thread lifecycle event published after commit.
type EventType string

const (
	EventThreadCreated   EventType = "thread.created"
	EventDraftCreated    EventType = "draft.created"
	EventMessageApproved EventType = "message.approved"
	EventMessageSent     EventType = "message.sent"
	EventReplyRecorded   EventType = "reply.recorded"
)

// ThreadEvent is a record of a committed state change.
type ThreadEvent struct {
	Type       EventType  `json:"type"`
	ThreadID   uuid.UUID  `json:"thread_id"`
	MessageID  *uuid.UUID `json:"message_id,omitempty"`
	Stage      Stage      `json:"stage"`
	OccurredAt time.Time  `json:"occurred_at"`
}
