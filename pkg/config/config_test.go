package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnvVars clears all Preflight-related environment variables.
func clearEnvVars() {
	envVars := []string{
		"APP_ENV", "LOG_LEVEL",
		"DATABASE_URL", "DATABASE_DRIVER", "SQLITE_PATH",
		"REDIS_URL", "RABBITMQ_URL",
		"WEATHER_PRIMARY_URL", "WEATHER_PRIMARY_API_KEY",
		"WEATHER_SECONDARY_URL", "WEATHER_SECONDARY_API_KEY",
		"WEATHER_HTTP_TIMEOUT", "WEATHER_RATE_LIMIT_RPS",
		"WEATHER_CACHE_TTL", "WEATHER_CACHE_MAX_ENTRIES", "WEATHER_CACHE_SWEEP_INTERVAL",
		"BREAKER_FAILURE_THRESHOLD", "BREAKER_RESET_TIMEOUT",
		"RETRY_MAX_RETRIES", "RETRY_INITIAL_DELAY", "RETRY_MAX_DELAY", "RETRY_BACKOFF_FACTOR",
		"CORRIDOR_SAMPLES", "MINIMUMS_FILE",
		"SCAN_INTERVAL", "SCAN_LOOKAHEAD",
		"RESCHEDULE_HORIZON_DAYS", "RESCHEDULE_TIMEZONE", "RESCHEDULE_TOP_N",
		"NOTIFY_DEDUPE_WINDOW",
		"OUTBOX_POLL_INTERVAL", "OUTBOX_BATCH_SIZE", "OUTBOX_MAX_RETRIES",
		"OUTBOX_STATS_INTERVAL", "OUTBOX_RETENTION_DAYS", "OUTBOX_CLEANUP_INTERVAL",
		"OUTBOX_PROCESSOR_ENABLED", "WORKER_HEALTH_ADDR",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	// Local mode is enabled by default when no DATABASE_URL is set
	assert.True(t, cfg.LocalMode)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)

	assert.Equal(t, 300*time.Second, cfg.WeatherCacheTTL)
	assert.Equal(t, 60*time.Second, cfg.WeatherCacheSweepInterval)
	assert.Equal(t, 1000, cfg.WeatherCacheMaxEntries)

	assert.Equal(t, 5, cfg.BreakerFailureThreshold)
	assert.Equal(t, 60*time.Second, cfg.BreakerResetTimeout)
	assert.Equal(t, 3, cfg.RetryMaxRetries)
	assert.Equal(t, 2.0, cfg.RetryBackoffFactor)

	assert.Equal(t, 10*time.Minute, cfg.ScanInterval)
	assert.Equal(t, 7, cfg.RescheduleHorizonDays)
	assert.Equal(t, 3, cfg.RescheduleTopN)
	assert.Equal(t, time.UTC, cfg.Location())

	assert.Equal(t, 100*time.Millisecond, cfg.OutboxPollInterval)
	assert.Equal(t, "0.0.0.0:8081", cfg.WorkerHealthAddr)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("APP_ENV", "production")
	os.Setenv("DATABASE_URL", "postgres://preflight:secret@db:5432/preflight")
	os.Setenv("WEATHER_CACHE_TTL", "2m")
	os.Setenv("BREAKER_FAILURE_THRESHOLD", "3")
	os.Setenv("RETRY_BACKOFF_FACTOR", "1.5")
	os.Setenv("RESCHEDULE_TIMEZONE", "America/Denver")
	os.Setenv("OUTBOX_PROCESSOR_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.False(t, cfg.LocalMode)
	assert.Equal(t, 2*time.Minute, cfg.WeatherCacheTTL)
	assert.Equal(t, 3, cfg.BreakerFailureThreshold)
	assert.Equal(t, 1.5, cfg.RetryBackoffFactor)
	assert.Equal(t, "America/Denver", cfg.Location().String())
	assert.False(t, cfg.OutboxProcessorEnabled)
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("WEATHER_CACHE_MAX_ENTRIES", "lots")
	os.Setenv("SCAN_INTERVAL", "often")
	os.Setenv("RETRY_BACKOFF_FACTOR", "fast")
	os.Setenv("RESCHEDULE_TIMEZONE", "Mars/Olympus_Mons")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.WeatherCacheMaxEntries)
	assert.Equal(t, 10*time.Minute, cfg.ScanInterval)
	assert.Equal(t, 2.0, cfg.RetryBackoffFactor)
	assert.Equal(t, time.UTC, cfg.Location())
}
