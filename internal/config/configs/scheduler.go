package configs

import "time"

// Scheduler configures the periodic sweeps. Each sweep runs once at startup
// and then on its own interval. BatchSize caps how many threads one run
// selects and Workers caps how many of them are processed concurrently.
type Scheduler struct {
	Enabled              bool          `env:"ENABLED" envDefault:"true"`
	InitialDraftInterval time.Duration `env:"INITIAL_DRAFT_INTERVAL" envDefault:"1m"`
	FollowUpInterval     time.Duration `env:"FOLLOWUP_INTERVAL" envDefault:"1h"`
	BatchSize            int           `env:"BATCH_SIZE" envDefault:"25"`
	Workers              int           `env:"WORKERS" envDefault:"4"`
}
