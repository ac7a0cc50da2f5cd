package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage is the lifecycle position of an outreach thread. The zero value is
// not a valid stage so an unset field is never mistaken for StageNew.
type Stage uint8

const (
	StageNew Stage = iota + 1
	StageNeedsApproval
	StageWaiting
	StageReplied
)

var stageNames = map[Stage]string{
	StageNew:           "new",
	StageNeedsApproval: "needs_approval",
	StageWaiting:       "waiting",
	StageReplied:       "replied",
}

// Stages lists every valid stage in lifecycle order.
func Stages() []Stage {
	return []Stage{StageNew, StageNeedsApproval, StageWaiting, StageReplied}
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", uint8(s))
}

// Valid reports whether s is one of the declared stages.
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

// ParseStage converts the persisted text form into a Stage.
func ParseStage(v string) (Stage, error) {
	for s, name := range stageNames {
		if name == v {
			return s, nil
		}
	}
	return 0, &ValidationError{Field: "stage", Reason: fmt.Sprintf("unknown stage %q", v)}
}

func (s Stage) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("marshal stage: invalid value %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Stage) UnmarshalText(b []byte) error {
	parsed, err := ParseStage(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// StageEvent is something that happened to a thread which may move it to
// another stage.
type StageEvent uint8

const (
	EventInitialDraft StageEvent = iota + 1
	EventFollowUpDraft
	EventSent
	EventReply
)

func (e StageEvent) String() string {
	switch e {
	case EventInitialDraft:
		return "initial_draft"
	case EventFollowUpDraft:
		return "follow_up_draft"
	case EventSent:
		return "sent"
	case EventReply:
		return "reply"
	default:
		return fmt.Sprintf("stage_event(%d)", uint8(e))
	}
}

// Next applies the thread transition table. Replied is sticky: only a reply
// or a manual send of an already approved message is accepted there, and
// neither leaves the stage.
func (s Stage) Next(e StageEvent) (Stage, error) {
	switch e {
	case EventInitialDraft:
		if s == StageNew {
			return StageNeedsApproval, nil
		}
	case EventFollowUpDraft:
		if s == StageWaiting {
			return StageNeedsApproval, nil
		}
	case EventSent:
		switch s {
		case StageNeedsApproval:
			return StageWaiting, nil
		case StageReplied:
			return StageReplied, nil
		}
	case EventReply:
		if s.Valid() {
			return StageReplied, nil
		}
	}
	return s, &GuardViolationError{
		Op:     e.String(),
		Entity: "thread",
		State:  s.String(),
	}
}

// Thread is the conversation between one influencer and one campaign.
type Thread struct {
	ID             uuid.UUID
	InfluencerID   uuid.UUID
	CampaignID     uuid.UUID
	Stage          Stage
	LastContactAt  *time.Time
	NextFollowUpAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FollowUpDue reports whether the thread is waiting and its follow-up time
// is at or before now.
func (t *Thread) FollowUpDue(now time.Time) bool {
	return t.Stage == StageWaiting && t.NextFollowUpAt != nil && !t.NextFollowUpAt.After(now)
}
