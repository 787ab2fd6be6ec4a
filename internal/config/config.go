package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewWarrantyConfigHolder),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	AuthJWTSecret string

	OTLPEndpoint string

	Observability ObservabilityConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBRunMigrations   bool

	Redis RedisConfig

	OutboxRelay OutboxRelayConfig

	RateLimit RateLimitConfig

	// SnowflakeNode identifies this instance when generating IDs.
	SnowflakeNode int64
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ObservabilityConfig carries the raw logging and OpenTelemetry settings.
type ObservabilityConfig struct {
	LogLevel        string
	LogFormat       string
	OtelEnabled     bool
	OtelProtocol    string
	SamplingRatio   float64
	SlowQueryMillis int
}

// OutboxRelayConfig drives the background publisher for claim events.
type OutboxRelayConfig struct {
	Enabled         bool
	IntervalSeconds int
	BatchSize       int
	StreamKey       string
}

// RateLimitConfig bounds claim mutations per dealer. It needs Redis.
type RateLimitConfig struct {
	Enabled         bool
	ClaimWriteRate  float64
	ClaimWriteBurst int
}

// Enabled reports whether a Redis address was configured.
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "warrantyhub"),
		AppVersion:        getenv("SERVICE_VERSION", getenv("APP_VERSION", "0.1.0")),
		Environment:       getenv("DEPLOYMENT_ENV", getenv("ENVIRONMENT", "development")),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		AuthJWTSecret:     strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
		OTLPEndpoint:      getenv("OTEL_EXPORTER_OTLP_ENDPOINT", getenv("OTLP_ENDPOINT", "localhost:4317")),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "warrantyhub"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		DBRunMigrations:   getenvBool("DATABASE_RUN_MIGRATIONS", true),
		Observability: ObservabilityConfig{
			LogLevel:        getenv("LOG_LEVEL", "info"),
			LogFormat:       getenv("LOG_FORMAT", "json"),
			OtelEnabled:     getenvBool("OTEL_ENABLED", true),
			OtelProtocol:    getenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")),
			SamplingRatio:   getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
			SlowQueryMillis: getenvInt("DATABASE_SLOW_QUERY_MS", 200),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getenvInt("REDIS_DB", 0),
		},
		OutboxRelay: OutboxRelayConfig{
			Enabled:         getenvBool("OUTBOX_RELAY_ENABLED", true),
			IntervalSeconds: getenvInt("OUTBOX_RELAY_INTERVAL_SECONDS", 5),
			BatchSize:       getenvInt("OUTBOX_RELAY_BATCH_SIZE", 100),
			StreamKey:       strings.TrimSpace(getenv("OUTBOX_RELAY_STREAM", "warranty_claim_events")),
		},
		RateLimit: RateLimitConfig{
			Enabled:         getenvBool("RATE_LIMIT_ENABLED", false),
			ClaimWriteRate:  getenvFloat("RATE_LIMIT_CLAIM_WRITE_RATE", 2),
			ClaimWriteBurst: getenvInt("RATE_LIMIT_CLAIM_WRITE_BURST", 20),
		},
		SnowflakeNode: getenvInt64("SNOWFLAKE_NODE", 1),
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}
