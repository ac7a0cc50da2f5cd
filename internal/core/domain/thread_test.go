package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageTransitions(t *testing.T) {
	allowed := map[Stage]map[StageEvent]Stage{
		StageNew: {
			EventInitialDraft: StageNeedsApproval,
			EventReply:        StageReplied,
		},
		StageNeedsApproval: {
			EventSent:  StageWaiting,
			EventReply: StageReplied,
		},
		StageWaiting: {
			EventFollowUpDraft: StageNeedsApproval,
			EventReply:         StageReplied,
		},
		StageReplied: {
			EventSent:  StageReplied,
			EventReply: StageReplied,
		},
	}
	events := []StageEvent{EventInitialDraft, EventFollowUpDraft, EventSent, EventReply}

	for _, from := range Stages() {
		for _, ev := range events {
			t.Run(from.String()+"/"+ev.String(), func(t *testing.T) {
				got, err := from.Next(ev)
				want, ok := allowed[from][ev]
				if ok {
					require.NoError(t, err)
					assert.Equal(t, want, got)
					return
				}
				var gv *GuardViolationError
				require.ErrorAs(t, err, &gv)
				assert.Equal(t, from, got)
				assert.Equal(t, "thread", gv.Entity)
				assert.Equal(t, from.String(), gv.State)
			})
		}
	}
}

func TestStageTextRoundTrip(t *testing.T) {
	for _, s := range Stages() {
		b, err := json.Marshal(s)
		require.NoError(t, err)
		var back Stage
		require.NoError(t, json.Unmarshal(b, &back))
		assert.Equal(t, s, back)
	}

	_, err := ParseStage("archived")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = Stage(0).MarshalText()
	assert.Error(t, err)
}

func TestFollowUpDue(t *testing.T) {
	now := time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := now.Add(d)
		return &v
	}

	cases := []struct {
		name   string
		thread Thread
		want   bool
	}{
		{"due exactly now", Thread{Stage: StageWaiting, NextFollowUpAt: at(0)}, true},
		{"overdue", Thread{Stage: StageWaiting, NextFollowUpAt: at(-time.Hour)}, true},
		{"one microsecond early", Thread{Stage: StageWaiting, NextFollowUpAt: at(time.Microsecond)}, false},
		{"no follow-up scheduled", Thread{Stage: StageWaiting}, false},
		{"replied", Thread{Stage: StageReplied, NextFollowUpAt: at(-time.Hour)}, false},
		{"needs approval", Thread{Stage: StageNeedsApproval, NextFollowUpAt: at(-time.Hour)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.thread.FollowUpDue(now))
		})
	}
}

func TestErrorMatching(t *testing.T) {
	nf := &NotFoundError{Entity: "thread"}
	assert.True(t, errors.Is(nf, ErrNotFound))
	assert.True(t, errors.Is(nf, ErrValidation))

	gv := &GuardViolationError{Op: "send", Entity: "message", State: "draft"}
	assert.True(t, errors.Is(gv, ErrGuardViolation))
	assert.False(t, errors.Is(gv, ErrRaceAnomaly))
	assert.True(t, IsBenign(gv))

	err := MarkRace(gv)
	assert.True(t, errors.Is(err, ErrRaceAnomaly))
	assert.True(t, errors.Is(err, ErrGuardViolation))

	cause := errors.New("timeout")
	gen := &GenerationError{Err: cause}
	assert.True(t, errors.Is(gen, ErrGeneration))
	assert.True(t, errors.Is(gen, cause))
	assert.False(t, IsBenign(gen))

	send := &SendError{Err: cause}
	assert.True(t, errors.Is(send, ErrSend))
	assert.True(t, errors.Is(send, cause))

	assert.True(t, errors.Is(&DuplicateThreadError{}, ErrDuplicateThread))
	assert.Equal(t, cause, MarkRace(cause))
}
