package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	availability "github.com/felixgeelhaar/preflight/internal/availability/domain"
	booking "github.com/felixgeelhaar/preflight/internal/booking/domain"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/application/services"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/domain"
	weatherServices "github.com/felixgeelhaar/preflight/internal/weather/application/services"
	weather "github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	engineNow      = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	engineOriginal = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
)

func TestGenerateCandidates(t *testing.T) {
	slots := services.GenerateCandidates(engineOriginal, engineNow, services.DefaultEngineConfig())

	// 10:00, 12:00 and 16:00 today plus five slots on each of the next seven days.
	require.Len(t, slots, 38)
	assert.Equal(t, time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC), slots[0].Start)
	assert.Equal(t, 96.0, slots[0].ProximityScore)
	assert.Equal(t, time.Date(2026, 3, 17, 16, 0, 0, 0, time.UTC), slots[len(slots)-1].Start)

	for _, s := range slots {
		assert.True(t, s.Start.After(engineNow))
		assert.False(t, s.Start.Equal(engineOriginal))
		assert.Contains(t, []int{8, 10, 12, 14, 16}, s.Start.Hour())
	}
}

func TestGenerateCandidates_LocalTime(t *testing.T) {
	denver, err := time.LoadLocation("America/Denver")
	require.NoError(t, err)
	cfg := services.DefaultEngineConfig()
	cfg.Location = denver

	slots := services.GenerateCandidates(engineOriginal, engineNow, cfg)
	require.NotEmpty(t, slots)
	for _, s := range slots {
		local := s.Start.In(denver)
		assert.Contains(t, []int{8, 10, 12, 14, 16}, local.Hour())
		assert.Zero(t, local.Minute())
	}
}

func TestGenerateCandidates_NothingLeftToday(t *testing.T) {
	cfg := services.DefaultEngineConfig()
	cfg.HorizonDays = 1
	now := time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC)

	slots := services.GenerateCandidates(engineOriginal, now, cfg)
	require.Len(t, slots, 5)
	assert.Equal(t, time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC), slots[0].Start)
}

func alwaysAvailable(b *booking.Booking) stubAvailability {
	open := []availability.Interval{{
		Start:     engineNow.Add(-24 * time.Hour),
		End:       engineNow.Add(30 * 24 * time.Hour),
		Available: true,
	}}
	return stubAvailability{intervals: map[uuid.UUID][]availability.Interval{
		b.StudentID():    open,
		b.InstructorID(): open,
	}}
}

func goodWeather() *stubAssessor {
	obs := weather.Observation{VisibilityMiles: 10, WindSpeedKnots: 5, Conditions: []string{weather.ConditionClear}}
	return &stubAssessor{assessment: weatherServices.Assessment{
		Verdict:   weather.Verdict{Valid: true, Confidence: 80},
		Departure: &obs,
	}}
}

func TestEngine_Generate(t *testing.T) {
	b := newTestBooking(t, engineOriginal, weather.LevelPrivatePilot)
	assessor := goodWeather()
	engine := services.NewEngine(assessor, alwaysAvailable(b), services.EngineConfig{}, nil)

	options, err := engine.Generate(context.Background(), b, engineNow)
	require.NoError(t, err)
	require.Len(t, options, 3)
	assert.Equal(t, 1, assessor.calls)

	expected := []time.Time{
		time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
	}
	for i, opt := range options {
		assert.Equal(t, expected[i], opt.Start)
		assert.Equal(t, i+1, opt.Rank)
		assert.Equal(t, b.ID(), opt.BookingID)
		assert.Equal(t, opt.Start.Add(b.Duration()), opt.End)
		assert.Equal(t, 80, opt.Confidence)
		assert.True(t, opt.WeatherValid)
		assert.True(t, opt.AvailabilityValid)
		require.NotNil(t, opt.Observation)
	}
	assert.Equal(t, 898.0, options[0].Score)
}

// countingWeather reports clear skies everywhere and counts lookups.
type countingWeather struct {
	mu             sync.Mutex
	observations   int
	crossValidated int
}

func (w *countingWeather) clear() weather.Observation {
	return weather.Observation{VisibilityMiles: 10, WindSpeedKnots: 4, Conditions: []string{"clear"}}
}

func (w *countingWeather) Observation(context.Context, weather.Coordinate) (weather.Observation, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.observations++
	return w.clear(), nil
}

func (w *countingWeather) CrossValidated(context.Context, weather.Coordinate) (weatherServices.CrossValidation, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.crossValidated++
	return weatherServices.CrossValidation{Observation: w.clear(), Confidence: 100}, nil
}

func TestEngine_GenerateValidatesRouteOncePerRun(t *testing.T) {
	b := newTestBooking(t, engineOriginal, weather.LevelPrivatePilot)
	source := &countingWeather{}
	validator := weatherServices.NewValidator(source, nil, 5, nil)
	engine := services.NewEngine(validator, alwaysAvailable(b), services.EngineConfig{}, nil)

	options, err := engine.Generate(context.Background(), b, engineNow)
	require.NoError(t, err)
	require.Len(t, options, 3)

	assert.Equal(t, 1, source.crossValidated)
	assert.Equal(t, 5, source.observations)
	for _, opt := range options {
		assert.Equal(t, 100, opt.Confidence)
	}
}

func TestEngine_GenerateRespectsAvailability(t *testing.T) {
	b := newTestBooking(t, engineOriginal, weather.LevelPrivatePilot)
	avail := alwaysAvailable(b)
	avail.intervals[b.StudentID()] = []availability.Interval{
		{
			Start:     time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC),
			End:       time.Date(2026, 3, 12, 18, 0, 0, 0, time.UTC),
			Available: true,
		},
		{
			Start:     time.Date(2026, 3, 12, 12, 0, 0, 0, time.UTC),
			End:       time.Date(2026, 3, 12, 13, 0, 0, 0, time.UTC),
			Available: false,
		},
	}
	engine := services.NewEngine(goodWeather(), avail, services.EngineConfig{}, nil)

	options, err := engine.Generate(context.Background(), b, engineNow)
	require.NoError(t, err)
	require.Len(t, options, 3)

	assert.Equal(t, time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC), options[0].Start)
	assert.Equal(t, time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC), options[1].Start)
	assert.Equal(t, time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC), options[2].Start)
}

func TestEngine_GenerateNoValidWeather(t *testing.T) {
	b := newTestBooking(t, engineOriginal, weather.LevelStudentPilot)
	assessor := &stubAssessor{assessment: weatherServices.Assessment{Verdict: weather.Invalid(0, "weather data unavailable")}}
	engine := services.NewEngine(assessor, alwaysAvailable(b), services.EngineConfig{}, nil)

	options, err := engine.Generate(context.Background(), b, engineNow)
	assert.ErrorIs(t, err, domain.ErrNoCandidateSlot)
	assert.Nil(t, options)
	assert.Equal(t, 1, assessor.calls)
}

func TestEngine_GenerateNobodyAvailable(t *testing.T) {
	b := newTestBooking(t, engineOriginal, weather.LevelPrivatePilot)
	engine := services.NewEngine(goodWeather(), stubAvailability{}, services.EngineConfig{}, nil)

	_, err := engine.Generate(context.Background(), b, engineNow)
	assert.ErrorIs(t, err, domain.ErrNoCandidateSlot)
}

func TestEngine_GenerateAvailabilityError(t *testing.T) {
	b := newTestBooking(t, engineOriginal, weather.LevelPrivatePilot)
	engine := services.NewEngine(goodWeather(), stubAvailability{err: errStore}, services.EngineConfig{}, nil)

	_, err := engine.Generate(context.Background(), b, engineNow)
	assert.ErrorIs(t, err, errStore)
}

func TestEngine_GenerateCancelled(t *testing.T) {
	b := newTestBooking(t, engineOriginal, weather.LevelPrivatePilot)
	engine := services.NewEngine(goodWeather(), alwaysAvailable(b), services.EngineConfig{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Generate(ctx, b, engineNow)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRank(t *testing.T) {
	base := time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)
	mk := func(offset time.Duration, score float64) *domain.RescheduleOption {
		return &domain.RescheduleOption{ID: uuid.New(), Start: base.Add(offset), Score: score}
	}
	late := mk(4*time.Hour, 900)
	early := mk(0, 900)
	best := mk(2*time.Hour, 950)
	worst := mk(6*time.Hour, 100)

	ranked := services.Rank([]*domain.RescheduleOption{late, worst, early, best}, 3)
	require.Len(t, ranked, 3)
	assert.Equal(t, []*domain.RescheduleOption{best, early, late}, ranked)
	assert.Equal(t, 1, best.Rank)
	assert.Equal(t, 2, early.Rank)
	assert.Equal(t, 3, late.Rank)
	assert.Zero(t, worst.Rank)
}

func TestRank_ConfidenceDominatesProximity(t *testing.T) {
	near := &domain.RescheduleOption{Start: engineOriginal.Add(2 * time.Hour), Score: domain.Score(98, 60)}
	far := &domain.RescheduleOption{Start: engineOriginal.Add(96 * time.Hour), Score: domain.Score(4, 80)}

	ranked := services.Rank([]*domain.RescheduleOption{near, far}, 3)
	assert.Equal(t, far, ranked[0])
}
