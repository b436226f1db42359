package services

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/felixgeelhaar/preflight/pkg/observability"
)

const defaultCorridorSamples = 5

// WeatherSource supplies observations for route validation.
type WeatherSource interface {
	Observation(ctx context.Context, coord domain.Coordinate) (domain.Observation, error)
	CrossValidated(ctx context.Context, coord domain.Coordinate) (CrossValidation, error)
}

// Assessment is a verdict together with the departure observation it was
// based on, when one was available.
type Assessment struct {
	Verdict   domain.Verdict
	Departure *domain.Observation
}

// Validator checks routes against certification minimums.
type Validator struct {
	weather  WeatherSource
	minimums domain.MinimumsTable
	samples  int
	logger   *slog.Logger
}

// NewValidator creates a validator sampling samples corridor points.
func NewValidator(weather WeatherSource, minimums domain.MinimumsTable, samples int, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	if minimums == nil {
		minimums = domain.DefaultMinimums()
	}
	if samples < 2 {
		samples = defaultCorridorSamples
	}
	return &Validator{
		weather:  weather,
		minimums: minimums,
		samples:  samples,
		logger:   logger,
	}
}

// ValidateRoute returns the verdict for flying route at level now.
func (v *Validator) ValidateRoute(ctx context.Context, route domain.Route, level domain.CertificationLevel) domain.Verdict {
	return v.Assess(ctx, route, level).Verdict
}

// Assess validates every corridor point. A point whose weather cannot be
// fetched fails the route.
func (v *Validator) Assess(ctx context.Context, route domain.Route, level domain.CertificationLevel) Assessment {
	minimums, err := v.minimums.For(level)
	if err != nil {
		return Assessment{Verdict: domain.Invalid(0, domain.ErrUnknownLevel.Error())}
	}

	confidence := 0
	var departure *domain.Observation
	if cv, err := v.weather.CrossValidated(ctx, route.Departure); err == nil {
		confidence = cv.Confidence
		obs := cv.Observation
		departure = &obs
	} else {
		v.logger.WarnContext(ctx, "cross-validation unavailable at departure",
			"coordinate", route.Departure.Key(),
			observability.ErrorKey, err,
		)
	}

	heading := route.Heading()
	var violations []string
	for _, point := range domain.Corridor(route, v.samples) {
		obs, err := v.weather.Observation(ctx, point)
		if err != nil {
			v.logger.WarnContext(ctx, "weather unavailable for corridor point",
				"coordinate", point.Key(),
				observability.ErrorKey, err,
			)
			violations = append(violations, "weather data unavailable at "+point.Key())
			continue
		}
		for _, violation := range domain.CheckObservation(obs, minimums, heading) {
			violations = append(violations, point.Key()+": "+violation)
		}
	}

	if len(violations) > 0 {
		return Assessment{Verdict: domain.Invalid(confidence, violations...), Departure: departure}
	}
	return Assessment{
		Verdict:   domain.Verdict{Valid: true, Violations: []string{}, Confidence: confidence},
		Departure: departure,
	}
}
