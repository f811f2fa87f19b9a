package config

import (
	"fmt"
	"log"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Session backends.
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// Config holds application configuration.
type Config struct {
	ListenAddr          string
	AdminAddr           string // empty disables the admin HTTP surface
	AdminAllowedOrigins []string
	IsProduction        bool
	LogLevel            slog.Level

	StoreDriver string
	DatabaseURL string
	PGMaxConns  int // zero keeps the pgx default
	SQLitePath  string

	SessionBackend       string
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration

	MaxLineBytes   int
	MaxConnections int
	ConnRateLimit  string // ulule formatted rate, e.g. "120-M"
	RequestRate    float64
	RequestBurst   int
	IdleTimeout    time.Duration

	PasswordHashing string
	OTelEndpoint    string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("ADMIN_ADDR", ":9090")
	v.SetDefault("ADMIN_ALLOWED_ORIGINS", "*")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", StoreSQLite)
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PGSQL_MAX_CONNS", 0)
	v.SetDefault("SQLITE_PATH", "pix.db")
	v.SetDefault("SESSION_BACKEND", SessionMemory)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("SESSION_SWEEP_INTERVAL", "10m")
	v.SetDefault("MAX_LINE_BYTES", 65536)
	v.SetDefault("MAX_CONNECTIONS", 0)
	v.SetDefault("CONN_RATE_LIMIT", "120-M")
	v.SetDefault("REQUEST_RATE", 0)
	v.SetDefault("REQUEST_BURST", 10)
	v.SetDefault("IDLE_TIMEOUT", "0s")
	v.SetDefault("PASSWORD_HASHING", "plain")
	v.SetDefault("OTEL_ENDPOINT", "")
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ListenAddr:           v.GetString("LISTEN_ADDR"),
		AdminAddr:            v.GetString("ADMIN_ADDR"),
		AdminAllowedOrigins:  splitList(v.GetString("ADMIN_ALLOWED_ORIGINS")),
		IsProduction:         v.GetBool("IS_PRODUCTION"),
		StoreDriver:          strings.ToLower(v.GetString("STORE_DRIVER")),
		DatabaseURL:          v.GetString("PGSQL_URL"),
		PGMaxConns:           v.GetInt("PGSQL_MAX_CONNS"),
		SQLitePath:           v.GetString("SQLITE_PATH"),
		SessionBackend:       strings.ToLower(v.GetString("SESSION_BACKEND")),
		RedisAddr:            v.GetString("REDIS_ADDR"),
		RedisPassword:        v.GetString("REDIS_PASSWORD"),
		RedisDB:              v.GetInt("REDIS_DB"),
		SessionTTL:           v.GetDuration("SESSION_TTL"),
		SessionSweepInterval: v.GetDuration("SESSION_SWEEP_INTERVAL"),
		MaxLineBytes:         v.GetInt("MAX_LINE_BYTES"),
		MaxConnections:       v.GetInt("MAX_CONNECTIONS"),
		ConnRateLimit:        v.GetString("CONN_RATE_LIMIT"),
		RequestRate:          v.GetFloat64("REQUEST_RATE"),
		RequestBurst:         v.GetInt("REQUEST_BURST"),
		IdleTimeout:          v.GetDuration("IDLE_TIMEOUT"),
		PasswordHashing:      strings.ToLower(v.GetString("PASSWORD_HASHING")),
		OTelEndpoint:         v.GetString("OTEL_ENDPOINT"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("LOG_LEVEL"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	switch cfg.StoreDriver {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PGSQL_URL is required when STORE_DRIVER is %s", StorePostgres)
		}
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	switch cfg.SessionBackend {
	case SessionMemory, SessionRedis:
	default:
		return nil, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.SessionBackend)
	}

	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}
	if cfg.PGMaxConns < 0 || cfg.PGMaxConns > math.MaxInt32 {
		return nil, fmt.Errorf("PGSQL_MAX_CONNS out of range, got %d", cfg.PGMaxConns)
	}
	if cfg.MaxLineBytes <= 0 {
		return nil, fmt.Errorf("MAX_LINE_BYTES must be positive, got %d", cfg.MaxLineBytes)
	}

	if cfg.StoreDriver == StoreMemory {
		log.Println("Warning: STORE_DRIVER is memory. Accounts and transactions are lost on restart.")
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
