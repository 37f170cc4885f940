package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "host=localhost dbname=haken")
	t.Setenv("JWT_ACCESS_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 7090, cfg.HTTP.Port)
	assert.Equal(t, 12*time.Hour, cfg.Auth.AccessTTL)
	assert.True(t, cfg.Contracts.MinimumWageStrict)
	assert.Equal(t, "./var/prints", cfg.PDF.StorageDir)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DSN", "host=localhost dbname=haken")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("MINIMUM_WAGE_STRICT", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("JWT_ACCESS_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Contracts.MinimumWageStrict)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTTL)
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_ACCESS_SECRET", "secret")

	_, err := Load()
	assert.Error(t, err)
}
