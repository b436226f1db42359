package commands_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	booking "github.com/felixgeelhaar/preflight/internal/booking/domain"
	bookingPersistence "github.com/felixgeelhaar/preflight/internal/booking/infrastructure/persistence"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/application/commands"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/domain"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/infrastructure/persistence"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/felixgeelhaar/preflight/internal/shared/infrastructure/persistence"
	weather "github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/felixgeelhaar/preflight/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

var testRoute = weather.Route{
	Departure: weather.Coordinate{Lat: 39.8561, Lon: -104.6737},
	Arrival:   weather.Coordinate{Lat: 40.0150, Lon: -105.2705},
}

// fakeEngine offers one option per offset from the booking's start.
type fakeEngine struct {
	offsets []time.Duration
	err     error
	calls   int
}

func (e *fakeEngine) Generate(_ context.Context, b *booking.Booking, _ time.Time) ([]*domain.RescheduleOption, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	var out []*domain.RescheduleOption
	for i, offset := range e.offsets {
		slot := domain.CandidateSlot{Start: b.ScheduledAt().Add(offset), ProximityScore: 90}
		opt, err := domain.NewRescheduleOption(b.ID(), slot, b.Duration(), nil, 80, true, true)
		if err != nil {
			return nil, err
		}
		opt.Rank = i + 1
		out = append(out, opt)
	}
	return out, nil
}

type fixture struct {
	db          *sql.DB
	bookings    *bookingPersistence.SQLiteBookingRepository
	options     *persistence.SQLiteOptionRepository
	preferences *persistence.SQLitePreferenceRepository
	audit       *persistence.SQLiteAuditRepository
	outbox      *outbox.SQLiteRepository
	uow         *sharedPersistence.SQLiteUnitOfWork
	engine      *fakeEngine
	metrics     *observability.InMemoryMetrics
	now         time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: sqlite.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, migrations.Run(ctx, conn))
	db := conn.(*sqlite.Connection).DB()

	return &fixture{
		db:          db,
		bookings:    bookingPersistence.NewSQLiteBookingRepository(db),
		options:     persistence.NewSQLiteOptionRepository(db),
		preferences: persistence.NewSQLitePreferenceRepository(db),
		audit:       persistence.NewSQLiteAuditRepository(db),
		outbox:      outbox.NewSQLiteRepository(db),
		uow:         sharedPersistence.NewSQLiteUnitOfWork(db),
		engine:      &fakeEngine{offsets: []time.Duration{24 * time.Hour, 26 * time.Hour, 48 * time.Hour}},
		metrics:     observability.NewInMemoryMetrics(),
		now:         testNow,
	}
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) generateHandler() *commands.GenerateOptionsHandler {
	return commands.NewGenerateOptionsHandler(f.bookings, f.options, f.preferences, f.audit, f.outbox, f.uow, f.engine, f.metrics, nil).
		WithClock(f.clock)
}

func (f *fixture) submitHandler() *commands.SubmitPreferenceHandler {
	return commands.NewSubmitPreferenceHandler(f.bookings, f.options, f.preferences, f.audit, f.uow, nil).
		WithClock(f.clock)
}

func (f *fixture) confirmHandler() *commands.ConfirmSelectionHandler {
	return commands.NewConfirmSelectionHandler(f.bookings, f.options, f.preferences, f.audit, f.outbox, f.uow, f.metrics, nil).
		WithClock(f.clock)
}

// seedBooking stores a booking departing after the given delay, moved to
// status through the legal transitions.
func (f *fixture) seedBooking(t *testing.T, departsIn time.Duration, level weather.CertificationLevel, status booking.Status) *booking.Booking {
	t.Helper()
	b, err := booking.NewBooking(uuid.New(), uuid.New(), f.now.Add(departsIn), 0, testRoute, level)
	require.NoError(t, err)
	switch status {
	case booking.StatusAtRisk:
		require.NoError(t, b.MarkAtRisk())
	case booking.StatusCancelled:
		require.NoError(t, b.Cancel())
	}
	b.ClearDomainEvents()
	require.NoError(t, f.bookings.Save(context.Background(), b))
	return b
}

// startRound seeds an AT_RISK booking and generates its options.
func (f *fixture) startRound(t *testing.T, departsIn time.Duration) (*booking.Booking, []*domain.RescheduleOption) {
	t.Helper()
	b := f.seedBooking(t, departsIn, weather.LevelStudentPilot, booking.StatusAtRisk)
	result, err := f.generateHandler().Handle(context.Background(), commands.GenerateOptionsCommand{BookingID: b.ID()})
	require.NoError(t, err)
	return b, result.Options
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *booking.Booking {
	t.Helper()
	b, err := f.bookings.FindByID(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (f *fixture) routingKeys(t *testing.T) []string {
	t.Helper()
	msgs, err := f.outbox.GetUnpublished(context.Background(), 100)
	require.NoError(t, err)
	keys := make([]string, len(msgs))
	for i, m := range msgs {
		keys[i] = m.RoutingKey
	}
	return keys
}

func (f *fixture) auditActions(t *testing.T, bookingID uuid.UUID) []domain.AuditAction {
	t.Helper()
	entries, err := f.audit.FindByBooking(context.Background(), bookingID)
	require.NoError(t, err)
	actions := make([]domain.AuditAction, len(entries))
	for i, e := range entries {
		actions[i] = e.Action
	}
	return actions
}
