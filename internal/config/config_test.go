package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("NOTIFY_INTERVAL", "")
	t.Setenv("DB_NAME", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8787", cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.NotifyInterval)
	assert.Equal(t, 120, cfg.RateLimitRequests)
	assert.Contains(t, cfg.DatabaseURL, "dbname=snapshelf")
	assert.False(t, cfg.StreamEnabled())
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, 54*time.Second, cfg.RealtimePingEvery)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/photos")
	t.Setenv("NOTIFY_INTERVAL", "2s")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("STREAM_API_KEY", "key")
	t.Setenv("STREAM_API_SECRET", "shh")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db:5432/photos", cfg.DatabaseURL)
	assert.Equal(t, 2*time.Second, cfg.NotifyInterval)
	assert.True(t, cfg.OTelEnabled)
	assert.True(t, cfg.StreamEnabled())
}

func TestLoadAllowedOrigins(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ALLOWED_ORIGINS", " https://app.example.com, ,https://*.example.org ")
	t.Setenv("REALTIME_PING_PERIOD", "20s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://app.example.com", "https://*.example.org"}, cfg.AllowedOrigins)
	assert.Equal(t, 20*time.Second, cfg.RealtimePingEvery)
}

func TestLoadRejectsNonPositiveRateLimit(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("RATE_LIMIT_REQUESTS", "0")

	_, err := Load()
	assert.Error(t, err)
}
