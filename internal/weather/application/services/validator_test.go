package services

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWeather struct {
	byKey      map[string]domain.Observation
	fallback   domain.Observation
	failKeys   map[string]bool
	confidence int
	cvErr      error
}

func (s *stubWeather) Observation(ctx context.Context, coord domain.Coordinate) (domain.Observation, error) {
	if s.failKeys[coord.Key()] {
		return domain.Observation{}, domain.ErrProviderFailure
	}
	if obs, ok := s.byKey[coord.Key()]; ok {
		return obs, nil
	}
	return s.fallback, nil
}

func (s *stubWeather) CrossValidated(ctx context.Context, coord domain.Coordinate) (CrossValidation, error) {
	if s.cvErr != nil {
		return CrossValidation{}, s.cvErr
	}
	obs, _ := s.Observation(ctx, coord)
	return CrossValidation{Observation: obs, Confidence: s.confidence}, nil
}

var testRoute = domain.Route{
	Departure: domain.Coordinate{Lat: 40, Lon: -105},
	Arrival:   domain.Coordinate{Lat: 40, Lon: -104},
}

func TestValidator_ClearRouteIsValid(t *testing.T) {
	weather := &stubWeather{fallback: reading(10, 5, 15), confidence: 100}
	v := NewValidator(weather, nil, 5, nil)

	assessment := v.Assess(context.Background(), testRoute, domain.LevelStudentPilot)
	assert.True(t, assessment.Verdict.Valid)
	assert.Empty(t, assessment.Verdict.Violations)
	assert.Equal(t, 100, assessment.Verdict.Confidence)
	require.NotNil(t, assessment.Departure)
	assert.Equal(t, 10.0, assessment.Departure.VisibilityMiles)
}

func TestValidator_ViolationAtInteriorPoint(t *testing.T) {
	mid := domain.Corridor(testRoute, 5)[2]
	weather := &stubWeather{
		fallback:   reading(10, 5, 15),
		byKey:      map[string]domain.Observation{mid.Key(): reading(2, 5, 15)},
		confidence: 67,
	}
	v := NewValidator(weather, nil, 5, nil)

	verdict := v.ValidateRoute(context.Background(), testRoute, domain.LevelPrivatePilot)
	assert.False(t, verdict.Valid)
	require.Len(t, verdict.Violations, 1)
	assert.Equal(t, mid.Key()+": visibility 2.0 mi below minimum 3.0 mi", verdict.Violations[0])
	assert.Equal(t, 67, verdict.Confidence)
}

func TestValidator_ProviderFailureIsNeverPermissive(t *testing.T) {
	arrival := testRoute.Arrival
	weather := &stubWeather{
		fallback:   reading(10, 5, 15),
		failKeys:   map[string]bool{arrival.Key(): true},
		confidence: 100,
	}
	v := NewValidator(weather, nil, 5, nil)

	verdict := v.ValidateRoute(context.Background(), testRoute, domain.LevelInstrumentRated)
	assert.False(t, verdict.Valid)
	assert.Equal(t, []string{"weather data unavailable at " + arrival.Key()}, verdict.Violations)
}

func TestValidator_CrossValidationFailureZeroConfidence(t *testing.T) {
	weather := &stubWeather{fallback: reading(10, 5, 15), cvErr: errors.New("both down")}
	v := NewValidator(weather, nil, 3, nil)

	assessment := v.Assess(context.Background(), testRoute, domain.LevelPrivatePilot)
	assert.True(t, assessment.Verdict.Valid)
	assert.Equal(t, 0, assessment.Verdict.Confidence)
	assert.Nil(t, assessment.Departure)
}

func TestValidator_UnknownLevel(t *testing.T) {
	v := NewValidator(&stubWeather{}, nil, 5, nil)

	verdict := v.ValidateRoute(context.Background(), testRoute, "GLIDER")
	assert.False(t, verdict.Valid)
	assert.Equal(t, []string{"unknown certification level"}, verdict.Violations)
}

func TestValidator_LevelsDifferOnSameWeather(t *testing.T) {
	weather := &stubWeather{fallback: reading(4, 15, 15), confidence: 100}
	v := NewValidator(weather, nil, 2, nil)

	assert.False(t, v.ValidateRoute(context.Background(), testRoute, domain.LevelStudentPilot).Valid)
	assert.True(t, v.ValidateRoute(context.Background(), testRoute, domain.LevelPrivatePilot).Valid)
}
