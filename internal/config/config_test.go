package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_NAME", "seats")
	t.Setenv("JWT_SECRET", "s3cret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "127.0.0.1", c.DBHost)
	assert.Equal(t, 15*time.Minute, c.HoldTTL)
	assert.Equal(t, 15*time.Minute, c.ClaimExtend)
	assert.Zero(t, c.SweepInterval)
	assert.Equal(t, "booking.confirmed", c.BookingQueue)
	assert.False(t, c.BookingLogConsumer)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("HOLD_TTL", "10m")
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("ADMIN_API_KEY", "key")
	t.Setenv("COOKIE_SECURE", "true")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, c.HoldTTL)
	assert.Equal(t, 30*time.Second, c.SweepInterval)
	assert.Equal(t, "key", c.AdminAPIKey)
	assert.True(t, c.CookieSecure)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing required", func(t *testing.T) {
		for _, k := range []string{"DB_USER", "DB_NAME", "JWT_SECRET"} {
			// Setenv restores the original value after the test.
			t.Setenv(k, "")
			require.NoError(t, os.Unsetenv(k))
		}
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("non-positive hold ttl", func(t *testing.T) {
		setRequired(t)
		t.Setenv("HOLD_TTL", "0s")
		_, err := Load()
		assert.ErrorContains(t, err, "HOLD_TTL")
	})
}

func TestLoadRateLimitConfig_Normalizes(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")

	c := LoadRateLimitConfig()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 1, c.RefillTokens)
	assert.Equal(t, "ip_route", c.KeyStrategy)
}

func TestCacheConfig_Methods(t *testing.T) {
	c := CacheConfig{MethodList: " get, head ,,"}
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, c.Methods())
}
