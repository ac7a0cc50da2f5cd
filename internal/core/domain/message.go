package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageStatus is the delivery state of a message. Outbound messages move
// draft -> approved -> sent; inbound messages are created as received.
type MessageStatus uint8

const (
	StatusDraft MessageStatus = iota + 1
	StatusApproved
	StatusSent
	StatusReceived
)

var statusNames = map[MessageStatus]string{
	StatusDraft:    "draft",
	StatusApproved: "approved",
	StatusSent:     "sent",
	StatusReceived: "received",
}

func (s MessageStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

func (s MessageStatus) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// Pending reports whether an outbound message in this status still awaits
// a human decision or delivery.
func (s MessageStatus) Pending() bool {
	return s == StatusDraft || s == StatusApproved
}

func ParseMessageStatus(v string) (MessageStatus, error) {
	for s, name := range statusNames {
		if name == v {
			return s, nil
		}
	}
	return 0, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", v)}
}

func (s MessageStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("marshal status: invalid value %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *MessageStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseMessageStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MessageEvent drives the outbound message status machine.
type MessageEvent uint8

const (
	EventApprove MessageEvent = iota + 1
	EventSend
)

func (e MessageEvent) String() string {
	switch e {
	case EventApprove:
		return "approve"
	case EventSend:
		return "send"
	default:
		return fmt.Sprintf("message_event(%d)", uint8(e))
	}
}

// Next applies the message transition table. There is no way back and no
// direct draft -> sent edge.
func (s MessageStatus) Next(e MessageEvent) (MessageStatus, error) {
	switch {
	case e == EventApprove && s == StatusDraft:
		return StatusApproved, nil
	case e == EventSend && s == StatusApproved:
		return StatusSent, nil
	}
	return s, &GuardViolationError{
		Op:     e.String(),
		Entity: "message",
		State:  s.String(),
	}
}

// Direction tells whether a message was written by the brand or the creator.
type Direction uint8

const (
	DirectionOutbound Direction = iota + 1
	DirectionInbound
)

func (d Direction) String() string {
	switch d {
	case DirectionOutbound:
		return "outbound"
	case DirectionInbound:
		return "inbound"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

func ParseDirection(v string) (Direction, error) {
	switch v {
	case "outbound":
		return DirectionOutbound, nil
	case "inbound":
		return DirectionInbound, nil
	}
	return 0, &ValidationError{Field: "direction", Reason: fmt.Sprintf("unknown direction %q", v)}
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	parsed, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Channel is the medium a message travels on. Only email is supported.
type Channel uint8

const ChannelEmail Channel = 1

func (c Channel) String() string {
	if c == ChannelEmail {
		return "email"
	}
	return fmt.Sprintf("channel(%d)", uint8(c))
}

func ParseChannel(v string) (Channel, error) {
	if v == "email" {
		return ChannelEmail, nil
	}
	return 0, &ValidationError{Field: "channel", Reason: fmt.Sprintf("unsupported channel %q", v)}
}

func (c Channel) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Channel) UnmarshalText(b []byte) error {
	parsed, err := ParseChannel(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MessageKind records why a message exists.
type MessageKind uint8

const (
	KindInitial MessageKind = iota + 1
	KindFollowUp
	KindReply
)

func (k MessageKind) String() string {
	switch k {
	case KindInitial:
		return "initial"
	case KindFollowUp:
		return "follow_up"
	case KindReply:
		return "reply"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func ParseMessageKind(v string) (MessageKind, error) {
	switch v {
	case "initial":
		return KindInitial, nil
	case "follow_up":
		return KindFollowUp, nil
	case "reply":
		return KindReply, nil
	}
	return 0, &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", v)}
}

func (k MessageKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *MessageKind) UnmarshalText(b []byte) error {
	parsed, err := ParseMessageKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// GenerationMode tags how a draft body was produced.
type GenerationMode string

const (
	ModeMock GenerationMode = "mock"
	ModeLive GenerationMode = "live"
)

// Message is one communication unit within a thread.
type Message struct {
	ID             uuid.UUID
	ThreadID       uuid.UUID
	Direction      Direction
	Status         MessageStatus
	Channel        Channel
	Kind           MessageKind
	Subject        string
	Body           string
	ProviderMsgID  *string
	GenerationMode GenerationMode
	CreatedAt      time.Time
	ApprovedAt     *time.Time
	SentAt         *time.Time
}

// PendingOutbound reports whether m blocks a new draft on its thread.
func (m *Message) PendingOutbound() bool {
	return m.Direction == DirectionOutbound && m.Status.Pending()
}
