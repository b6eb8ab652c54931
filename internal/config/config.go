package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the client and the dev server.
type Config struct {
	App       AppConfig
	API       APIConfig
	State     StateConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Offline   OfflineConfig
	Breaker   BreakerConfig
	Logger    LoggerConfig
	DevServer DevServerConfig
}

// AppConfig holds process identity values.
type AppConfig struct {
	Name    string
	Env     string
	Version string
}

// APIConfig controls how the client talks to the remote API.
type APIConfig struct {
	BaseURL               string
	RequestTimeoutSeconds int
	RateLimitPerSecond    float64
	RateLimitBurst        int
}

// StateBackend selects where session and pending-action state lives.
type StateBackend string

const (
	StateMemory   StateBackend = "memory"
	StateSQLite   StateBackend = "sqlite"
	StatePostgres StateBackend = "postgres"
	StateRedis    StateBackend = "redis"
)

// StateConfig configures local durable state.
type StateConfig struct {
	Backend    StateBackend
	SQLitePath string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// OfflineConfig tunes the read cache and the replay worker.
type OfflineConfig struct {
	CacheSize           int
	CacheTTLSeconds     int
	SyncIntervalSeconds int
	SyncBatchSize       int
}

// BreakerConfig tunes the transport circuit breaker.
type BreakerConfig struct {
	ConsecutiveFailures uint32
	OpenSeconds         int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// DevServerStore selects the dev server's repositories.
type DevServerStore string

const (
	DevStoreMemory   DevServerStore = "memory"
	DevStorePostgres DevServerStore = "postgres"
)

// DevServerConfig configures the stand-in API server.
type DevServerConfig struct {
	Store                  DevServerStore
	Host                   string
	Port                   string
	JWTSecret              string
	AccessTokenTTLMinutes  int
	RefreshTokenTTLMinutes int
	BcryptCost             int
	AdminUsername          string
	AdminPassword          string
	PageSize               int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	backend := StateBackend(strings.ToLower(getEnv("AIDTRACE_STATE_BACKEND", string(StateSQLite))))
	switch backend {
	case StateMemory, StateSQLite, StatePostgres, StateRedis:
	default:
		return nil, fmt.Errorf("invalid AIDTRACE_STATE_BACKEND %q", backend)
	}

	store := DevServerStore(strings.ToLower(getEnv("DEVSERVER_STORE", string(DevStoreMemory))))
	if store != DevStoreMemory && store != DevStorePostgres {
		return nil, fmt.Errorf("invalid DEVSERVER_STORE %q", store)
	}

	rate, err := strconv.ParseFloat(getEnv("AIDTRACE_RATE_LIMIT_PER_SECOND", "0"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid AIDTRACE_RATE_LIMIT_PER_SECOND: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "aidtrace"),
			Env:     getEnv("APP_ENV", "development"),
			Version: getEnv("APP_VERSION", "dev"),
		},
		API: APIConfig{
			BaseURL:               strings.TrimRight(getEnv("AIDTRACE_API_URL", "http://localhost:8000/api"), "/"),
			RequestTimeoutSeconds: getEnvAsInt("AIDTRACE_REQUEST_TIMEOUT_SECONDS", 30),
			RateLimitPerSecond:    rate,
			RateLimitBurst:        getEnvAsInt("AIDTRACE_RATE_LIMIT_BURST", 5),
		},
		State: StateConfig{
			Backend:    backend,
			SQLitePath: getEnv("AIDTRACE_STATE_PATH", defaultStatePath()),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 4)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "aidtrace:"),
		},
		Offline: OfflineConfig{
			CacheSize:           getEnvAsInt("AIDTRACE_CACHE_SIZE", 128),
			CacheTTLSeconds:     getEnvAsInt("AIDTRACE_CACHE_TTL_SECONDS", 3600),
			SyncIntervalSeconds: getEnvAsInt("AIDTRACE_SYNC_INTERVAL_SECONDS", 30),
			SyncBatchSize:       getEnvAsInt("AIDTRACE_SYNC_BATCH_SIZE", 50),
		},
		Breaker: BreakerConfig{
			ConsecutiveFailures: uint32(getEnvAsInt("AIDTRACE_BREAKER_FAILURES", 3)),
			OpenSeconds:         getEnvAsInt("AIDTRACE_BREAKER_OPEN_SECONDS", 15),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		DevServer: DevServerConfig{
			Store:                  store,
			Host:                   getEnv("DEVSERVER_HOST", "127.0.0.1"),
			Port:                   getEnv("DEVSERVER_PORT", "8000"),
			JWTSecret:              getEnv("DEVSERVER_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:  getEnvAsInt("DEVSERVER_ACCESS_TOKEN_TTL_MINUTES", 60),
			RefreshTokenTTLMinutes: getEnvAsInt("DEVSERVER_REFRESH_TOKEN_TTL_MINUTES", 7*24*60),
			BcryptCost:             getEnvAsInt("DEVSERVER_BCRYPT_COST", 10),
			AdminUsername:          getEnv("DEVSERVER_ADMIN_USERNAME", "admin"),
			AdminPassword:          getEnv("DEVSERVER_ADMIN_PASSWORD", "admin"),
			PageSize:               getEnvAsInt("DEVSERVER_PAGE_SIZE", 20),
		},
	}

	return cfg, nil
}

// RequestTimeout returns the configured request timeout duration.
func (a APIConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// CacheTTL returns the read cache entry lifetime.
func (o OfflineConfig) CacheTTL() time.Duration {
	if o.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(o.CacheTTLSeconds) * time.Second
}

// SyncInterval returns the replay worker period.
func (o OfflineConfig) SyncInterval() time.Duration {
	if o.SyncIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(o.SyncIntervalSeconds) * time.Second
}

// OpenTimeout returns how long the breaker stays open before probing again.
func (b BreakerConfig) OpenTimeout() time.Duration {
	if b.OpenSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(b.OpenSeconds) * time.Second
}

// Addr returns the dev server bind address.
func (d DevServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", d.Host, d.Port)
}

// AccessTTL returns the access token lifetime.
func (d DevServerConfig) AccessTTL() time.Duration {
	return time.Duration(d.AccessTokenTTLMinutes) * time.Minute
}

// RefreshTTL returns the refresh token lifetime.
func (d DevServerConfig) RefreshTTL() time.Duration {
	return time.Duration(d.RefreshTokenTTLMinutes) * time.Minute
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "aidtrace.db"
	}
	return filepath.Join(home, ".aidtrace", "state.db")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
