package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Routing      RoutingConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
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
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// RoutingConfig tunes the assignment pipeline.
type RoutingConfig struct {
	// DedupTTLMinutes bounds how long an inbound (platform, external id)
	// pair is remembered for duplicate suppression.
	DedupTTLMinutes int
	// RequeueSchedule is a cron expression for the pending-message sweep.
	RequeueSchedule string
	// RequeueMinAgeSeconds keeps the sweep off messages the inbound path
	// may still be processing.
	RequeueMinAgeSeconds int
	// RequeueBatchSize caps messages re-attempted per sweep.
	RequeueBatchSize int
}

// NotificationConfig holds notification surface settings.
type NotificationConfig struct {
	Enabled     bool
	LinkBaseURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "message-router"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Routing: RoutingConfig{
			DedupTTLMinutes:      getEnvAsInt("ROUTING_DEDUP_TTL_MINUTES", 1440),
			RequeueSchedule:      getEnv("ROUTING_REQUEUE_SCHEDULE", "@every 5m"),
			RequeueMinAgeSeconds: getEnvAsInt("ROUTING_REQUEUE_MIN_AGE_SECONDS", 120),
			RequeueBatchSize:     getEnvAsInt("ROUTING_REQUEUE_BATCH_SIZE", 50),
		},
		Notification: NotificationConfig{
			Enabled:     getEnvAsBool("NOTIFY_ENABLED", true),
			LinkBaseURL: getEnv("NOTIFY_LINK_BASE_URL", "/staff/messages"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// DedupTTL returns the duplicate-suppression window.
func (r RoutingConfig) DedupTTL() time.Duration {
	if r.DedupTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(r.DedupTTLMinutes) * time.Minute
}

// RequeueMinAge returns the minimum pending age before a sweep retry.
func (r RoutingConfig) RequeueMinAge() time.Duration {
	if r.RequeueMinAgeSeconds <= 0 {
		return 0
	}
	return time.Duration(r.RequeueMinAgeSeconds) * time.Second
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
