package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("SESSION_BACKEND", "")
	t.Setenv("CURRENCY", "")
	t.Setenv("CSRF_ENABLED", "")
	t.Setenv("SESSION_MAX_AGE", "")

	cfg := Load()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, SessionBackendCookie, cfg.SessionBackend)
	assert.Equal(t, "EUR", cfg.Currency)
	assert.True(t, cfg.CSRFEnabled)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionMaxAge)
}

func TestValidate_MissingRequired(t *testing.T) {
	cfg := Config{SessionBackend: SessionBackendCookie}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestValidate_RedisNeedsAddr(t *testing.T) {
	cfg := Config{
		DatabaseURL:    "postgres://localhost/shop",
		SessionSecret:  []byte("secret"),
		SessionBackend: SessionBackendRedis,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_ADDR")

	cfg.RedisAddr = "localhost:6379"
	require.NoError(t, cfg.Validate())
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_INT", "nope")
	t.Setenv("X_BOOL", "false")

	assert.Equal(t, 3, EnvIntDefault("X_INT", 3))
	assert.False(t, EnvBoolDefault("X_BOOL", true))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092"))
	assert.Nil(t, CSV(""))
}
