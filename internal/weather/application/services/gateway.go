package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/resilience"
	"github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/felixgeelhaar/preflight/pkg/observability"
	"golang.org/x/sync/errgroup"
)

// Confidence reported when only one provider answered a cross-validation.
const singleSourceConfidence = 80

// Agreement tolerances, relative to the larger of the two readings.
const (
	visibilityTolerance  = 0.10
	windSpeedTolerance   = 0.15
	temperatureTolerance = 0.05
)

// ObservationCache stores observations by rounded coordinate.
type ObservationCache interface {
	Get(coord domain.Coordinate) (domain.Observation, bool)
	Set(coord domain.Coordinate, obs domain.Observation, fetchedAt time.Time)
}

// GatewayConfig configures retry and breaker behaviour per provider.
type GatewayConfig struct {
	Retry   resilience.RetryConfig
	Breaker resilience.BreakerConfig
}

// DefaultGatewayConfig returns the default provider resilience settings.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		Retry:   resilience.DefaultRetryConfig(),
		Breaker: resilience.DefaultBreakerConfig(),
	}
}

// CrossValidation is an observation scored by how well the two providers agree.
type CrossValidation struct {
	// Observation prefers the primary provider's reading.
	Observation domain.Observation
	Confidence  int
	Primary     *domain.Observation
	Secondary   *domain.Observation
}

type guardedProvider struct {
	provider domain.Provider
	breaker  *resilience.CircuitBreaker
}

// Gateway fetches weather through the cache, then the primary provider,
// then the secondary provider. Each provider sits behind its own circuit
// breaker with retries inside it.
type Gateway struct {
	primary   guardedProvider
	secondary guardedProvider
	cache     ObservationCache
	retry     resilience.RetryConfig
	metrics   observability.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewGateway creates a provider gateway.
func NewGateway(
	primary, secondary domain.Provider,
	cache ObservationCache,
	cfg GatewayConfig,
	metrics observability.Metrics,
	logger *slog.Logger,
) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if cfg.Retry.Retryable == nil {
		cfg.Retry.Retryable = resilience.IsRetryable
	}

	listener := func(name string, from, to resilience.BreakerState) {
		metrics.Gauge(observability.MetricCircuitBreakerState, resilience.StateValue(to), observability.T("name", name))
	}
	guard := func(p domain.Provider) guardedProvider {
		name := string(p.ID())
		metrics.Gauge(observability.MetricCircuitBreakerState, 0, observability.T("name", name))
		return guardedProvider{
			provider: p,
			breaker:  resilience.NewCircuitBreaker(name, cfg.Breaker, logger, listener),
		}
	}

	return &Gateway{
		primary:   guard(primary),
		secondary: guard(secondary),
		cache:     cache,
		retry:     cfg.Retry,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Observation returns current conditions at coord. A fresh cache entry is
// returned as is; otherwise the primary provider is tried, then the
// secondary. When both fail the error wraps domain.ErrProviderFailure.
func (g *Gateway) Observation(ctx context.Context, coord domain.Coordinate) (domain.Observation, error) {
	if g.cache != nil {
		if obs, ok := g.cache.Get(coord); ok {
			return obs, nil
		}
	}

	obs, primaryErr := g.fetch(ctx, g.primary, coord)
	if primaryErr == nil {
		g.store(coord, obs)
		return obs, nil
	}
	g.logger.WarnContext(ctx, "primary weather provider failed, falling back",
		observability.ProviderKey, g.primary.provider.ID(),
		"coordinate", coord.Key(),
		observability.ErrorKey, primaryErr,
	)

	obs, secondaryErr := g.fetch(ctx, g.secondary, coord)
	if secondaryErr == nil {
		g.store(coord, obs)
		return obs, nil
	}

	return domain.Observation{}, fmt.Errorf("%w at %s: %w", domain.ErrProviderFailure, coord.Key(),
		errors.Join(primaryErr, secondaryErr))
}

// CrossValidated queries both providers concurrently, tolerating the
// failure of either, and scores their agreement.
func (g *Gateway) CrossValidated(ctx context.Context, coord domain.Coordinate) (CrossValidation, error) {
	var (
		eg                       errgroup.Group
		primaryObs, secondaryObs domain.Observation
		primaryErr, secondaryErr error
	)
	eg.Go(func() error {
		primaryObs, primaryErr = g.fetch(ctx, g.primary, coord)
		return nil
	})
	eg.Go(func() error {
		secondaryObs, secondaryErr = g.fetch(ctx, g.secondary, coord)
		return nil
	})
	_ = eg.Wait()

	switch {
	case primaryErr == nil && secondaryErr == nil:
		g.store(coord, primaryObs)
		return CrossValidation{
			Observation: primaryObs,
			Confidence:  Confidence(primaryObs, secondaryObs),
			Primary:     &primaryObs,
			Secondary:   &secondaryObs,
		}, nil
	case primaryErr == nil:
		g.store(coord, primaryObs)
		return CrossValidation{Observation: primaryObs, Confidence: singleSourceConfidence, Primary: &primaryObs}, nil
	case secondaryErr == nil:
		g.store(coord, secondaryObs)
		return CrossValidation{Observation: secondaryObs, Confidence: singleSourceConfidence, Secondary: &secondaryObs}, nil
	default:
		return CrossValidation{}, fmt.Errorf("%w at %s: %w", domain.ErrProviderFailure, coord.Key(),
			errors.Join(primaryErr, secondaryErr))
	}
}

// BreakerStates reports each provider breaker's state by name.
func (g *Gateway) BreakerStates() map[string]string {
	return map[string]string{
		g.primary.breaker.Name():   string(g.primary.breaker.State()),
		g.secondary.breaker.Name(): string(g.secondary.breaker.State()),
	}
}

func (g *Gateway) fetch(ctx context.Context, gp guardedProvider, coord domain.Coordinate) (domain.Observation, error) {
	provider := string(gp.provider.ID())
	obs, err := resilience.ExecuteBreaker(gp.breaker, func() (domain.Observation, error) {
		return resilience.RetryWithJitter(ctx, g.retry, func(ctx context.Context) (domain.Observation, error) {
			return gp.provider.Current(ctx, coord)
		})
	})

	outcome := "success"
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		outcome = "rejected"
	case err != nil:
		outcome = "error"
	}
	g.metrics.Counter(observability.MetricWeatherProviderRequests, 1,
		observability.T("provider", provider), observability.T("outcome", outcome))
	return obs, err
}

func (g *Gateway) store(coord domain.Coordinate, obs domain.Observation) {
	if g.cache != nil {
		g.cache.Set(coord, obs, g.now())
	}
}

// Confidence scores agreement between two readings on a 0-100 scale:
// the share of visibility, wind speed and temperature that agree within
// tolerance.
func Confidence(a, b domain.Observation) int {
	agreeing := 0
	if agrees(a.VisibilityMiles, b.VisibilityMiles, visibilityTolerance) {
		agreeing++
	}
	if agrees(a.WindSpeedKnots, b.WindSpeedKnots, windSpeedTolerance) {
		agreeing++
	}
	if agrees(a.TemperatureC, b.TemperatureC, temperatureTolerance) {
		agreeing++
	}
	return int(math.Round(100 * float64(agreeing) / 3))
}

func agrees(a, b, tolerance float64) bool {
	if a == b {
		return true
	}
	larger := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b) <= tolerance*larger
}
