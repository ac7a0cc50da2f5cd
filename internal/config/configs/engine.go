package configs

import (
	"fmt"
	"time"
)

// ThreadUniqueness decides what CreateThread does when the influencer and
// campaign are already linked by a thread.
type ThreadUniqueness string

const (
	// UniquenessAllow creates another thread for the pair.
	UniquenessAllow ThreadUniqueness = "allow"
	// UniquenessReject fails with a duplicate thread error.
	UniquenessReject ThreadUniqueness = "reject"
	// UniquenessReuse returns the existing thread unchanged.
	UniquenessReuse ThreadUniqueness = "reuse"
)

// Engine holds the workflow engine policy. FollowUpDays is the number of
// days between a send and the next automatic follow-up draft. The two
// timeouts bound the external generation and sending calls.
type Engine struct {
	FollowUpDays     int              `env:"FOLLOWUP_DAYS" envDefault:"3"`
	ThreadUniqueness ThreadUniqueness `env:"THREAD_UNIQUENESS" envDefault:"allow"`
	GenerateTimeout  time.Duration    `env:"GENERATE_TIMEOUT" envDefault:"30s"`
	SendTimeout      time.Duration    `env:"SEND_TIMEOUT" envDefault:"15s"`
}

// FollowUpDelay converts FollowUpDays into a duration.
func (c Engine) FollowUpDelay() time.Duration {
	return time.Duration(c.FollowUpDays) * 24 * time.Hour
}

// Validate rejects values the engine cannot run with.
func (c Engine) Validate() error {
	if c.FollowUpDays < 1 {
		return fmt.Errorf("engine: follow-up days must be positive, got %d", c.FollowUpDays)
	}
	switch c.ThreadUniqueness {
	case UniquenessAllow, UniquenessReject, UniquenessReuse:
	default:
		return fmt.Errorf("engine: unknown thread uniqueness %q", c.ThreadUniqueness)
	}
	if c.GenerateTimeout <= 0 || c.SendTimeout <= 0 {
		return fmt.Errorf("engine: timeouts must be positive")
	}
	return nil
}
