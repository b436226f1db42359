package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/preflight/internal/booking/domain"
	weather "github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRoute = weather.Route{
	Departure: weather.Coordinate{Lat: 39.8561, Lon: -104.6737},
	Arrival:   weather.Coordinate{Lat: 40.0150, Lon: -105.2705},
}

func newBooking(t *testing.T) *domain.Booking {
	t.Helper()
	b, err := domain.NewBooking(uuid.New(), uuid.New(),
		time.Date(2026, 6, 1, 14, 0, 0, 0, time.UTC), 0, testRoute, weather.LevelStudentPilot)
	require.NoError(t, err)
	return b
}

func TestNewBooking(t *testing.T) {
	b := newBooking(t)

	assert.Equal(t, domain.StatusConfirmed, b.Status())
	assert.Equal(t, domain.DefaultDuration, b.Duration())
	assert.Equal(t, time.Date(2026, 6, 1, 16, 0, 0, 0, time.UTC), b.EndsAt())
	assert.Equal(t, 0, b.Version())
	assert.Empty(t, b.DomainEvents())
	assert.True(t, b.IsParticipant(b.StudentID()))
	assert.True(t, b.IsParticipant(b.InstructorID()))
	assert.False(t, b.IsParticipant(uuid.New()))
}

func TestNewBooking_Validation(t *testing.T) {
	student := uuid.New()
	at := time.Now()

	_, err := domain.NewBooking(student, student, at, 0, testRoute, weather.LevelStudentPilot)
	assert.ErrorIs(t, err, domain.ErrSameParticipant)

	_, err = domain.NewBooking(uuid.Nil, uuid.New(), at, 0, testRoute, weather.LevelStudentPilot)
	assert.ErrorIs(t, err, domain.ErrMissingParticipant)

	_, err = domain.NewBooking(student, uuid.New(), at, -time.Hour, testRoute, weather.LevelStudentPilot)
	assert.ErrorIs(t, err, domain.ErrInvalidDuration)

	_, err = domain.NewBooking(student, uuid.New(), at, 0, testRoute, "SPACE_CADET")
	assert.ErrorIs(t, err, weather.ErrUnknownLevel)

	bad := weather.Route{Departure: weather.Coordinate{Lat: 91}, Arrival: testRoute.Arrival}
	_, err = domain.NewBooking(student, uuid.New(), at, 0, bad, weather.LevelStudentPilot)
	assert.Error(t, err)
}

func TestBooking_RiskRoundTrip(t *testing.T) {
	b := newBooking(t)

	require.NoError(t, b.MarkAtRisk())
	assert.Equal(t, domain.StatusAtRisk, b.Status())
	assert.ErrorIs(t, b.MarkAtRisk(), domain.ErrInvalidTransition)

	require.NoError(t, b.ClearRisk())
	assert.Equal(t, domain.StatusConfirmed, b.Status())

	events := b.DomainEvents()
	require.Len(t, events, 2)
	first := events[0].(*domain.StatusChanged)
	assert.Equal(t, domain.StatusConfirmed, first.From)
	assert.Equal(t, domain.StatusAtRisk, first.To)
	assert.Equal(t, domain.RoutingKeyStatusChanged, first.RoutingKey())
}

func TestBooking_Reschedule(t *testing.T) {
	b := newBooking(t)
	original := b.ScheduledAt()
	newStart := original.Add(48 * time.Hour)

	assert.ErrorIs(t, b.CompleteReschedule(newStart), domain.ErrInvalidTransition)
	assert.Equal(t, original, b.ScheduledAt())

	require.NoError(t, b.MarkAtRisk())
	require.NoError(t, b.BeginRescheduling())
	require.NoError(t, b.CompleteReschedule(newStart))

	assert.Equal(t, domain.StatusRescheduled, b.Status())
	assert.Equal(t, newStart, b.ScheduledAt())

	events := b.DomainEvents()
	last := events[len(events)-1].(*domain.StatusChanged)
	assert.Equal(t, domain.StatusRescheduled, last.To)
	require.NotNil(t, last.PreviousScheduledAt)
	assert.Equal(t, original, *last.PreviousScheduledAt)
	assert.Equal(t, newStart, last.ScheduledAt)
}

func TestBooking_Escalate(t *testing.T) {
	b := newBooking(t)
	require.NoError(t, b.MarkAtRisk())
	assert.ErrorIs(t, b.Escalate(), domain.ErrInvalidTransition)

	require.NoError(t, b.BeginRescheduling())
	require.NoError(t, b.Escalate())
	assert.Equal(t, domain.StatusAtRisk, b.Status())
}

func TestBooking_TerminalStates(t *testing.T) {
	b := newBooking(t)
	require.NoError(t, b.Cancel())
	assert.True(t, b.Status().IsTerminal())
	assert.ErrorIs(t, b.MarkAtRisk(), domain.ErrInvalidTransition)
	assert.ErrorIs(t, b.Complete(), domain.ErrInvalidTransition)

	at := newBooking(t)
	require.NoError(t, at.MarkAtRisk())
	assert.ErrorIs(t, at.Complete(), domain.ErrInvalidTransition)
}

func TestStatus(t *testing.T) {
	assert.True(t, domain.StatusConfirmed.IsScannable())
	assert.True(t, domain.StatusAtRisk.IsScannable())
	assert.False(t, domain.StatusRescheduling.IsScannable())
	assert.ElementsMatch(t, []domain.Status{domain.StatusConfirmed, domain.StatusAtRisk}, domain.ScannableStatuses())

	st, err := domain.ParseStatus("RESCHEDULED")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRescheduled, st)

	_, err = domain.ParseStatus("LOST")
	assert.Error(t, err)
}

func TestRehydrateBooking(t *testing.T) {
	id := uuid.New()
	at := time.Date(2026, 6, 1, 14, 0, 0, 0, time.UTC)
	b := domain.RehydrateBooking(id, uuid.New(), uuid.New(), at, time.Hour, testRoute,
		weather.LevelPrivatePilot, domain.StatusAtRisk, 4, at, at)

	assert.Equal(t, id, b.ID())
	assert.Equal(t, 4, b.Version())
	assert.Equal(t, domain.StatusAtRisk, b.Status())
	assert.Empty(t, b.DomainEvents())
}
