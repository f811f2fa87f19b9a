package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestDefaults(t *testing.T) {
	cfg, err := fromViper(newViper(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, ":9090", cfg.AdminAddr)
	assert.Equal(t, []string{"*"}, cfg.AdminAllowedOrigins)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, StoreSQLite, cfg.StoreDriver)
	assert.Equal(t, "pix.db", cfg.SQLitePath)
	assert.Equal(t, SessionMemory, cfg.SessionBackend)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10*time.Minute, cfg.SessionSweepInterval)
	assert.Equal(t, 65536, cfg.MaxLineBytes)
	assert.Zero(t, cfg.MaxConnections)
	assert.Zero(t, cfg.PGMaxConns)
	assert.Equal(t, "120-M", cfg.ConnRateLimit)
	assert.Zero(t, cfg.RequestRate)
	assert.Equal(t, 10, cfg.RequestBurst)
	assert.Zero(t, cfg.IdleTimeout)
	assert.Equal(t, "plain", cfg.PasswordHashing)
}

func TestOverrides(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{
		"STORE_DRIVER":          "Postgres",
		"PGSQL_URL":             "postgres://localhost/pix",
		"PGSQL_MAX_CONNS":       16,
		"SESSION_BACKEND":       "redis",
		"LOG_LEVEL":             "debug",
		"ADMIN_ALLOWED_ORIGINS": "https://a.example, https://b.example",
		"SESSION_TTL":           "30m",
		"IDLE_TIMEOUT":          "5m",
		"REQUEST_RATE":          2.5,
	}))
	require.NoError(t, err)

	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, 16, cfg.PGMaxConns)
	assert.Equal(t, SessionRedis, cfg.SessionBackend)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AdminAllowedOrigins)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.IdleTimeout)
	assert.Equal(t, 2.5, cfg.RequestRate)
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
	}{
		{"unknown store", map[string]any{"STORE_DRIVER": "mongo"}},
		{"postgres without url", map[string]any{"STORE_DRIVER": "postgres"}},
		{"unknown session backend", map[string]any{"SESSION_BACKEND": "memcached"}},
		{"bad log level", map[string]any{"LOG_LEVEL": "loud"}},
		{"zero ttl", map[string]any{"SESSION_TTL": "0s"}},
		{"zero line cap", map[string]any{"MAX_LINE_BYTES": 0}},
		{"negative pool size", map[string]any{"PGSQL_MAX_CONNS": -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fromViper(newViper(tt.overrides))
			assert.Error(t, err)
		})
	}
}
