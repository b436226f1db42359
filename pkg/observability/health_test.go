package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthRegistry_OverallStatus(t *testing.T) {
	reg := NewHealthRegistry()
	reg.Register("database", DatabaseHealthChecker(func(ctx context.Context) error { return nil }))
	reg.Register("redis", RedisHealthChecker(func(ctx context.Context) error { return errors.New("refused") }))

	results := reg.Check(context.Background())
	require.Len(t, results, 2)
	assert.Equal(t, HealthStatusHealthy, results["database"].Status)
	assert.Equal(t, HealthStatusDegraded, results["redis"].Status)
	assert.Equal(t, HealthStatusDegraded, reg.OverallStatus())
}

func TestReadinessHandler(t *testing.T) {
	t.Run("ready when degraded", func(t *testing.T) {
		reg := NewHealthRegistry()
		reg.Register("rabbitmq", RabbitMQHealthChecker(func(ctx context.Context) error { return errors.New("closed") }))

		rec := httptest.NewRecorder()
		reg.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
	})

	t.Run("not ready when unhealthy", func(t *testing.T) {
		reg := NewHealthRegistry()
		reg.Register("database", DatabaseHealthChecker(func(ctx context.Context) error { return errors.New("down") }))

		rec := httptest.NewRecorder()
		reg.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCircuitBreakerHealthChecker(t *testing.T) {
	check := CircuitBreakerHealthChecker(func() map[string]string {
		return map[string]string{"primary": "closed", "secondary": "open"}
	})

	result := check(context.Background())
	assert.Equal(t, HealthStatusDegraded, result.Status)
	assert.Equal(t, "open", result.Details["secondary"])

	healthy := CircuitBreakerHealthChecker(func() map[string]string {
		return map[string]string{"primary": "closed"}
	})(context.Background())
	assert.Equal(t, HealthStatusHealthy, healthy.Status)
}
