package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"creator-outreach/internal/config/configs"
)

// Store drivers accepted in STORE_DRIVER.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config aggregates all configuration sections for the application. Fields
// are populated from environment variables using the caarlos0/env library. The
// nested structs are tagged with envPrefix so their fields are parsed with
// the given prefix. See the individual types in the configs package for
// default values and options. Use Load to construct a Config.
type Config struct {
	// Env specifies the deployment environment (e.g. prod, dev). It is
	// attached to every log line.
	Env string `env:"ENV" envDefault:"prod"`

	// StoreDriver chooses the entity store. "memory" keeps everything in
	// process and is meant for local runs.
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`

	// AllowTestEndpoints exposes the simulate-inbound endpoint. It must stay
	// false in production.
	AllowTestEndpoints bool `env:"ALLOW_TEST_ENDPOINTS" envDefault:"false"`

	// SeedDemo inserts a demo campaign with influencers and threads on start
	// when the store has no campaigns yet.
	SeedDemo bool `env:"SEED_DEMO" envDefault:"false"`

	// HTTP holds configuration for the HTTP server. Environment variables
	// prefixed with HTTP_ will populate this struct.
	HTTP configs.HTTP `envPrefix:"HTTP_"`

	// Log configures the structured logger. Environment variables prefixed
	// with LOG_ will populate this struct.
	Log configs.Logger `envPrefix:"LOG_"`

	// Psql configures the PostgreSQL connection. Environment variables
	// prefixed with PSQL_ will populate this struct.
	Psql configs.Postgres `envPrefix:"PSQL_"`

	Engine    configs.Engine    `envPrefix:"ENGINE_"`
	Scheduler configs.Scheduler `envPrefix:"SCHEDULER_"`
	LLM       configs.LLM       `envPrefix:"LLM_"`
	Mail      configs.Mail      `envPrefix:"MAIL_"`
	AMQP      configs.AMQP      `envPrefix:"AMQP_"`
}

// Load reads configuration from environment variables into a Config and
// validates the sections that have invariants. All fields are loaded with
// their specified defaults when no environment variable is provided.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	switch c.LLM.Mode {
	case "mock":
	case "live":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm: live mode requires LLM_API_KEY")
		}
	default:
		return fmt.Errorf("llm: unknown mode %q", c.LLM.Mode)
	}
	switch c.Mail.Mode {
	case "mock":
	case "smtp":
		if c.Mail.Host == "" {
			return fmt.Errorf("mail: smtp mode requires MAIL_HOST")
		}
	default:
		return fmt.Errorf("mail: unknown mode %q", c.Mail.Mode)
	}
	if c.Mail.DryRun && c.Mail.TestRecipient == "" {
		return fmt.Errorf("mail: dry run requires MAIL_TEST_RECIPIENT")
	}
	if c.Scheduler.Enabled {
		if c.Scheduler.InitialDraftInterval <= 0 || c.Scheduler.FollowUpInterval <= 0 {
			return fmt.Errorf("scheduler: intervals must be positive")
		}
		if c.Scheduler.BatchSize < 1 || c.Scheduler.Workers < 1 {
			return fmt.Errorf("scheduler: batch size and workers must be positive")
		}
		if c.StoreDriver == StorePostgres && c.Psql.MaxConns != 0 && int(c.Psql.MaxConns) <= c.Scheduler.Workers {
			return fmt.Errorf("psql: max conns %d must exceed scheduler workers %d", c.Psql.MaxConns, c.Scheduler.Workers)
		}
	}
	return nil
}
