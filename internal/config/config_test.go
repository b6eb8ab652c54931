package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AIDTRACE_STATE_PATH", "/tmp/aidtrace-test.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.RequestTimeout())
	assert.Equal(t, StateSQLite, cfg.State.Backend)
	assert.Equal(t, "/tmp/aidtrace-test.db", cfg.State.SQLitePath)
	assert.Equal(t, 128, cfg.Offline.CacheSize)
	assert.Equal(t, time.Hour, cfg.Offline.CacheTTL())
	assert.Equal(t, uint32(3), cfg.Breaker.ConsecutiveFailures)
	assert.Equal(t, DevStoreMemory, cfg.DevServer.Store)
	assert.Equal(t, "127.0.0.1:8000", cfg.DevServer.Addr())
	assert.Equal(t, 7*24*time.Hour, cfg.DevServer.RefreshTTL())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AIDTRACE_API_URL", "https://aid.example.org/api/")
	t.Setenv("AIDTRACE_STATE_BACKEND", "Redis")
	t.Setenv("AIDTRACE_REQUEST_TIMEOUT_SECONDS", "5")
	t.Setenv("AIDTRACE_RATE_LIMIT_PER_SECOND", "2.5")
	t.Setenv("AIDTRACE_SYNC_INTERVAL_SECONDS", "not-a-number")
	t.Setenv("DEVSERVER_STORE", "POSTGRES")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://aid.example.org/api", cfg.API.BaseURL)
	assert.Equal(t, StateRedis, cfg.State.Backend)
	assert.Equal(t, 5*time.Second, cfg.API.RequestTimeout())
	assert.InDelta(t, 2.5, cfg.API.RateLimitPerSecond, 0.001)
	assert.Equal(t, 30*time.Second, cfg.Offline.SyncInterval())
	assert.Equal(t, DevStorePostgres, cfg.DevServer.Store)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("backend", func(t *testing.T) {
		t.Setenv("AIDTRACE_STATE_BACKEND", "floppy")
		_, err := Load()
		require.Error(t, err)
	})
	t.Run("dev store", func(t *testing.T) {
		t.Setenv("DEVSERVER_STORE", "mongo")
		_, err := Load()
		require.Error(t, err)
	})
	t.Run("redis db", func(t *testing.T) {
		t.Setenv("REDIS_DB", "x")
		_, err := Load()
		require.Error(t, err)
	})
}
