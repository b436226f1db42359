package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string

	// Database
	DatabaseURL    string
	DatabaseDriver string
	SQLitePath     string
	LocalMode      bool

	// Redis
	RedisURL string

	// RabbitMQ
	RabbitMQURL string

	// Weather providers
	WeatherPrimaryURL      string
	WeatherPrimaryAPIKey   string
	WeatherSecondaryURL    string
	WeatherSecondaryAPIKey string
	WeatherHTTPTimeout     time.Duration
	WeatherRateLimitRPS    float64

	// Weather cache
	WeatherCacheTTL           time.Duration
	WeatherCacheMaxEntries    int
	WeatherCacheSweepInterval time.Duration

	// Resilience
	BreakerFailureThreshold int
	BreakerResetTimeout     time.Duration
	RetryMaxRetries         int
	RetryInitialDelay       time.Duration
	RetryMaxDelay           time.Duration
	RetryBackoffFactor      float64

	// Validation
	CorridorSamples int
	MinimumsFile    string

	// Conflict scanning
	ScanInterval  time.Duration
	ScanLookahead time.Duration

	// Reschedule engine
	RescheduleHorizonDays int
	RescheduleTimezone    string
	RescheduleTopN        int

	// Notifications
	NotifyDedupeWindow time.Duration

	// Outbox
	OutboxPollInterval     time.Duration
	OutboxBatchSize        int
	OutboxMaxRetries       int
	OutboxStatsInterval    time.Duration
	OutboxRetentionDays    int
	OutboxCleanupInterval  time.Duration
	OutboxProcessorEnabled bool

	// Worker
	WorkerHealthAddr string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	databaseURL := getEnv("DATABASE_URL", "")
	driver := getEnv("DATABASE_DRIVER", "")
	if driver == "" {
		driver = detectDriver(databaseURL)
	}

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:    databaseURL,
		DatabaseDriver: driver,
		SQLitePath:     getEnv("SQLITE_PATH", ""),
		LocalMode:      driver == "sqlite",

		RedisURL:    getEnv("REDIS_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		WeatherPrimaryURL:      getEnv("WEATHER_PRIMARY_URL", "https://api.openweathermap.org/data/2.5"),
		WeatherPrimaryAPIKey:   getEnv("WEATHER_PRIMARY_API_KEY", ""),
		WeatherSecondaryURL:    getEnv("WEATHER_SECONDARY_URL", "https://api.weatherapi.com/v1"),
		WeatherSecondaryAPIKey: getEnv("WEATHER_SECONDARY_API_KEY", ""),
		WeatherHTTPTimeout:     getDurationEnv("WEATHER_HTTP_TIMEOUT", 10*time.Second),
		WeatherRateLimitRPS:    getFloatEnv("WEATHER_RATE_LIMIT_RPS", 5),

		WeatherCacheTTL:           getDurationEnv("WEATHER_CACHE_TTL", 300*time.Second),
		WeatherCacheMaxEntries:    getIntEnv("WEATHER_CACHE_MAX_ENTRIES", 1000),
		WeatherCacheSweepInterval: getDurationEnv("WEATHER_CACHE_SWEEP_INTERVAL", 60*time.Second),

		BreakerFailureThreshold: getIntEnv("BREAKER_FAILURE_THRESHOLD", 5),
		BreakerResetTimeout:     getDurationEnv("BREAKER_RESET_TIMEOUT", 60*time.Second),
		RetryMaxRetries:         getIntEnv("RETRY_MAX_RETRIES", 3),
		RetryInitialDelay:       getDurationEnv("RETRY_INITIAL_DELAY", 1*time.Second),
		RetryMaxDelay:           getDurationEnv("RETRY_MAX_DELAY", 10*time.Second),
		RetryBackoffFactor:      getFloatEnv("RETRY_BACKOFF_FACTOR", 2),

		CorridorSamples: getIntEnv("CORRIDOR_SAMPLES", 5),
		MinimumsFile:    getEnv("MINIMUMS_FILE", ""),

		ScanInterval:  getDurationEnv("SCAN_INTERVAL", 10*time.Minute),
		ScanLookahead: getDurationEnv("SCAN_LOOKAHEAD", 48*time.Hour),

		RescheduleHorizonDays: getIntEnv("RESCHEDULE_HORIZON_DAYS", 7),
		RescheduleTimezone:    getEnv("RESCHEDULE_TIMEZONE", "UTC"),
		RescheduleTopN:        getIntEnv("RESCHEDULE_TOP_N", 3),

		NotifyDedupeWindow: getDurationEnv("NOTIFY_DEDUPE_WINDOW", 9*time.Minute),

		OutboxPollInterval:     getDurationEnv("OUTBOX_POLL_INTERVAL", 100*time.Millisecond),
		OutboxBatchSize:        getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:       getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxStatsInterval:    getDurationEnv("OUTBOX_STATS_INTERVAL", 30*time.Second),
		OutboxRetentionDays:    getIntEnv("OUTBOX_RETENTION_DAYS", 14),
		OutboxCleanupInterval:  getDurationEnv("OUTBOX_CLEANUP_INTERVAL", 24*time.Hour),
		OutboxProcessorEnabled: getBoolEnv("OUTBOX_PROCESSOR_ENABLED", true),

		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Location resolves the reschedule timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.RescheduleTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func detectDriver(url string) string {
	if url == "" {
		return "sqlite"
	}
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
