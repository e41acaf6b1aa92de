package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PROGRESSION_STORE", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "valoron", cfg.App.Name)
	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.Equal(t, 15*time.Second, cfg.App.ShutdownTimeout)
	assert.Equal(t, 4, cfg.Progression.MaxPropagationDepth)
	assert.Equal(t, StoreMemory, cfg.Progression.Store)
	assert.Equal(t, "valoron:events", cfg.Redis.EventsChannel)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("DATABASE_URL", "postgres://localhost/valoron")
	t.Setenv("DB_MAX_CONNS", "20")
	t.Setenv("PROGRESSION_MAX_PROPAGATION_DEPTH", "6")
	t.Setenv("LOG_FORMAT", "Console")
	t.Setenv("REDIS_DISABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvStaging, cfg.App.Environment)
	assert.Equal(t, StorePostgres, cfg.Progression.Store)
	assert.Equal(t, int32(20), cfg.Database.MaxConns)
	assert.Equal(t, 6, cfg.Progression.MaxPropagationDepth)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.Redis.Disabled)
}

func TestLoad_PostgresRequiresURL(t *testing.T) {
	t.Setenv("PROGRESSION_STORE", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("PROGRESSION_STORE", "memory")
	t.Setenv("PROGRESSION_MAX_PROPAGATION_DEPTH", "deep")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{
		App:         AppConfig{Environment: "prod"},
		Database:    DatabaseConfig{MaxConns: 1, MinConns: 2},
		Redis:       RedisConfig{Port: 0},
		Log:         LogConfig{Format: "xml"},
		Progression: ProgressionConfig{Store: "sqlite"},
	}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"APP_ENV", "PROGRESSION_STORE", "PROGRESSION_MAX_PROPAGATION_DEPTH", "DB_MIN_CONNS", "REDIS_PORT", "LOG_FORMAT"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidate_MemoryStoreNotInProduction(t *testing.T) {
	cfg := &Config{
		App:         AppConfig{Environment: EnvProduction},
		Database:    DatabaseConfig{MaxConns: 1},
		Redis:       RedisConfig{Disabled: true},
		Log:         LogConfig{Format: "json"},
		Progression: ProgressionConfig{Store: StoreMemory, MaxPropagationDepth: 4},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed in production")
}
