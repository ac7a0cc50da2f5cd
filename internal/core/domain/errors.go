package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrGuardViolation  = errors.New("guard violation")
	ErrRaceAnomaly     = errors.New("race anomaly")
	ErrDuplicateThread = errors.New("duplicate thread")
	ErrGeneration      = errors.New("draft generation failed")
	ErrSend            = errors.New("send failed")
)

// ValidationError reports a malformed or missing input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports an unknown identifier. It is a validation failure
// from the caller's point of view.
type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound || target == ErrValidation
}

// GuardViolationError reports an operation attempted in the wrong state.
// Race marks violations observed after a concurrent operation already
// advanced the state the caller selected on.
type GuardViolationError struct {
	Op     string
	Entity string
	ID     uuid.UUID
	State  string
	Reason string
	Race   bool
}

func (e *GuardViolationError) Error() string {
	msg := fmt.Sprintf("%s not allowed on %s", e.Op, e.Entity)
	if e.ID != uuid.Nil {
		msg += " " + e.ID.String()
	}
	if e.State != "" {
		msg += " in state " + e.State
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *GuardViolationError) Is(target error) bool {
	return target == ErrGuardViolation || (e.Race && target == ErrRaceAnomaly)
}

// DuplicateThreadError is returned when the pair policy rejects a second
// thread for the same influencer and campaign.
type DuplicateThreadError struct {
	InfluencerID uuid.UUID
	CampaignID   uuid.UUID
	ExistingID   uuid.UUID
}

func (e *DuplicateThreadError) Error() string {
	return fmt.Sprintf("thread %s already links influencer %s and campaign %s", e.ExistingID, e.InfluencerID, e.CampaignID)
}

func (e *DuplicateThreadError) Is(target error) bool { return target == ErrDuplicateThread }

// GenerationError wraps a failure of the text generation capability.
type GenerationError struct {
	ThreadID uuid.UUID
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate draft for thread %s: %v", e.ThreadID, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

// SendError wraps a failure of the email sending capability.
type SendError struct {
	MessageID uuid.UUID
	Err       error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send message %s: %v", e.MessageID, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

func (e *SendError) Is(target error) bool { return target == ErrSend }

// IsBenign reports whether err is an expected outcome of concurrent callers
// racing on the same thread and should be treated as a no-op by sweeps.
func IsBenign(err error) bool {
	return errors.Is(err, ErrGuardViolation)
}

// MarkRace flags a guard violation as a race anomaly. Sweeps use it for
// threads that were selected in one state and found in another under the
// lock. Other errors are returned unchanged.
func MarkRace(err error) error {
	var gv *GuardViolationError
	if errors.As(err, &gv) {
		gv.Race = true
	}
	return err
}
