package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creator-outreach/internal/config/configs"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.False(t, cfg.AllowTestEndpoints)
	assert.Equal(t, 3, cfg.Engine.FollowUpDays)
	assert.Equal(t, 72*time.Hour, cfg.Engine.FollowUpDelay())
	assert.Equal(t, configs.UniquenessAllow, cfg.Engine.ThreadUniqueness)
	assert.Equal(t, time.Minute, cfg.Scheduler.InitialDraftInterval)
	assert.Equal(t, time.Hour, cfg.Scheduler.FollowUpInterval)
	assert.Equal(t, 25, cfg.Scheduler.BatchSize)
	assert.Equal(t, "mock", cfg.LLM.Mode)
	assert.Equal(t, "mock", cfg.Mail.Mode)
	assert.Equal(t, uint16(8080), cfg.HTTP.Port)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("ALLOW_TEST_ENDPOINTS", "true")
	t.Setenv("ENGINE_FOLLOWUP_DAYS", "5")
	t.Setenv("ENGINE_THREAD_UNIQUENESS", "reuse")
	t.Setenv("SCHEDULER_WORKERS", "8")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.True(t, cfg.AllowTestEndpoints)
	assert.Equal(t, 5*24*time.Hour, cfg.Engine.FollowUpDelay())
	assert.Equal(t, configs.UniquenessReuse, cfg.Engine.ThreadUniqueness)
	assert.Equal(t, 8, cfg.Scheduler.Workers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown store":          {"STORE_DRIVER": "sqlite"},
		"unknown uniqueness":     {"ENGINE_THREAD_UNIQUENESS": "sometimes"},
		"zero follow-up days":    {"ENGINE_FOLLOWUP_DAYS": "0"},
		"live without key":       {"LLM_MODE": "live"},
		"smtp without host":      {"MAIL_MODE": "smtp"},
		"dry run no target":      {"MAIL_DRY_RUN": "true"},
		"zero workers":           {"SCHEDULER_WORKERS": "0"},
		"pool not above workers": {"PSQL_MAX_CONNS": "4", "SCHEDULER_WORKERS": "4"},
	}
	for name, envs := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range envs {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
