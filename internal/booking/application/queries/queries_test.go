package queries

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/preflight/internal/booking/domain"
	weather "github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) Save(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *mockBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *mockBookingRepo) FindScheduledBetween(ctx context.Context, from, to time.Time, statuses ...domain.Status) ([]*domain.Booking, error) {
	args := m.Called(ctx, from, to, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Booking), args.Error(1)
}

func (m *mockBookingRepo) FindByStatus(ctx context.Context, status domain.Status) ([]*domain.Booking, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Booking), args.Error(1)
}

var route = weather.Route{
	Departure: weather.Coordinate{Lat: 39.8561, Lon: -104.6737},
	Arrival:   weather.Coordinate{Lat: 40.0150, Lon: -105.2705},
}

func newBooking(t *testing.T, at time.Time) *domain.Booking {
	t.Helper()
	b, err := domain.NewBooking(uuid.New(), uuid.New(), at, 90*time.Minute, route, weather.LevelInstrumentRated)
	require.NoError(t, err)
	return b
}

func TestGetBookingHandler(t *testing.T) {
	repo := new(mockBookingRepo)
	at := time.Date(2026, 5, 2, 15, 0, 0, 0, time.UTC)
	b := newBooking(t, at)
	repo.On("FindByID", mock.Anything, b.ID()).Return(b, nil)

	dto, err := NewGetBookingHandler(repo).Handle(context.Background(), GetBookingQuery{BookingID: b.ID()})
	require.NoError(t, err)
	assert.Equal(t, b.ID(), dto.ID)
	assert.Equal(t, at.Add(90*time.Minute), dto.EndsAt)
	assert.Equal(t, "INSTRUMENT_RATED", dto.Level)
	assert.Equal(t, "CONFIRMED", dto.Status)
	assert.Equal(t, route, dto.Route)
	repo.AssertExpectations(t)
}

func TestGetBookingHandler_NotFound(t *testing.T) {
	repo := new(mockBookingRepo)
	id := uuid.New()
	repo.On("FindByID", mock.Anything, id).Return(nil, domain.ErrBookingNotFound)

	_, err := NewGetBookingHandler(repo).Handle(context.Background(), GetBookingQuery{BookingID: id})
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestListUpcomingHandler(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	first := newBooking(t, now.Add(3*time.Hour))
	second := newBooking(t, now.Add(30*time.Hour))

	t.Run("default window", func(t *testing.T) {
		repo := new(mockBookingRepo)
		repo.On("FindScheduledBetween", mock.Anything, now, now.Add(DefaultUpcomingWindow), []domain.Status(nil)).
			Return([]*domain.Booking{first, second}, nil)

		handler := NewListUpcomingHandler(repo).WithClock(func() time.Time { return now })
		out, err := handler.Handle(context.Background(), ListUpcomingQuery{})
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, first.ID(), out[0].ID)
		assert.Equal(t, second.ID(), out[1].ID)
		repo.AssertExpectations(t)
	})

	t.Run("explicit statuses", func(t *testing.T) {
		repo := new(mockBookingRepo)
		statuses := []domain.Status{domain.StatusRescheduling}
		repo.On("FindScheduledBetween", mock.Anything, now, now.Add(24*time.Hour), statuses).
			Return([]*domain.Booking{}, nil)

		handler := NewListUpcomingHandler(repo).WithClock(func() time.Time { return now })
		out, err := handler.Handle(context.Background(), ListUpcomingQuery{Within: 24 * time.Hour, Statuses: statuses})
		require.NoError(t, err)
		assert.Empty(t, out)
		repo.AssertExpectations(t)
	})
}
