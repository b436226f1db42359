package services_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	availability "github.com/felixgeelhaar/preflight/internal/availability/domain"
	booking "github.com/felixgeelhaar/preflight/internal/booking/domain"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/outbox"
	weatherServices "github.com/felixgeelhaar/preflight/internal/weather/application/services"
	weather "github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/google/uuid"
)

var testRoute = weather.Route{
	Departure: weather.Coordinate{Lat: 39.8561, Lon: -104.6737},
	Arrival:   weather.Coordinate{Lat: 40.0150, Lon: -105.2705},
}

type memBookings struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*booking.Booking
	failSave map[uuid.UUID]error
}

func newMemBookings(bs ...*booking.Booking) *memBookings {
	r := &memBookings{bookings: map[uuid.UUID]*booking.Booking{}, failSave: map[uuid.UUID]error{}}
	for _, b := range bs {
		b.SetVersion(1)
		r.bookings[b.ID()] = b
	}
	return r
}

func (r *memBookings) Save(_ context.Context, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failSave[b.ID()]; err != nil {
		return err
	}
	b.SetVersion(b.Version() + 1)
	r.bookings[b.ID()] = b
	return nil
}

func (r *memBookings) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	return b, nil
}

func (r *memBookings) FindScheduledBetween(_ context.Context, from, to time.Time, statuses ...booking.Status) ([]*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*booking.Booking
	for _, b := range r.bookings {
		if b.ScheduledAt().Before(from) || b.ScheduledAt().After(to) {
			continue
		}
		for _, s := range statuses {
			if b.Status() == s {
				out = append(out, b)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt().Before(out[j].ScheduledAt()) })
	return out, nil
}

func (r *memBookings) FindByStatus(_ context.Context, status booking.Status) ([]*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*booking.Booking
	for _, b := range r.bookings {
		if b.Status() == status {
			out = append(out, b)
		}
	}
	return out, nil
}

type passThroughUoW struct{}

func (passThroughUoW) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (passThroughUoW) Commit(context.Context) error                       { return nil }
func (passThroughUoW) Rollback(context.Context) error                     { return nil }

// verdicts maps a booking's certification level to the verdict returned
// for it.
type stubValidator struct {
	verdicts map[weather.CertificationLevel]weather.Verdict
}

func (v stubValidator) ValidateRoute(_ context.Context, _ weather.Route, level weather.CertificationLevel) weather.Verdict {
	return v.verdicts[level]
}

type stubAssessor struct {
	mu         sync.Mutex
	assessment weatherServices.Assessment
	calls      int
}

func (a *stubAssessor) Assess(context.Context, weather.Route, weather.CertificationLevel) weatherServices.Assessment {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return a.assessment
}

type stubAvailability struct {
	intervals map[uuid.UUID][]availability.Interval
	err       error
}

func (s stubAvailability) Intervals(_ context.Context, userID uuid.UUID, _, _ time.Time) ([]availability.Interval, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.intervals[userID], nil
}

type stubGate struct {
	allow    bool
	err      error
	keys     []string
	released []string
}

func (g *stubGate) Allow(_ context.Context, key string) (bool, error) {
	g.keys = append(g.keys, key)
	return g.allow, g.err
}

func (g *stubGate) Release(_ context.Context, key string) error {
	g.released = append(g.released, key)
	return nil
}

// failingOutbox rejects every batch.
type failingOutbox struct {
	*outbox.InMemoryRepository
	err error
}

func (o failingOutbox) SaveBatch(context.Context, []*outbox.Message) error {
	return o.err
}

var errStore = errors.New("store unavailable")
