package commands_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/felixgeelhaar/preflight/internal/booking/application/commands"
	"github.com/felixgeelhaar/preflight/internal/booking/domain"
	"github.com/felixgeelhaar/preflight/internal/booking/infrastructure/persistence"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/felixgeelhaar/preflight/internal/shared/infrastructure/persistence"
	weather "github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var route = weather.Route{
	Departure: weather.Coordinate{Lat: 39.8561, Lon: -104.6737},
	Arrival:   weather.Coordinate{Lat: 40.0150, Lon: -105.2705},
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: sqlite.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, migrations.Run(ctx, conn))
	return conn.(*sqlite.Connection).DB()
}

func TestCreateBookingHandler(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := persistence.NewSQLiteBookingRepository(db)
	handler := commands.NewCreateBookingHandler(repo, sharedPersistence.NewSQLiteUnitOfWork(db), nil)

	at := time.Date(2026, 6, 1, 14, 0, 0, 0, time.UTC)
	result, err := handler.Handle(ctx, commands.CreateBookingCommand{
		StudentID:    uuid.New(),
		InstructorID: uuid.New(),
		ScheduledAt:  at,
		Route:        route,
		Level:        "student-pilot",
	})
	require.NoError(t, err)

	stored, err := repo.FindByID(ctx, result.BookingID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, stored.Status())
	assert.Equal(t, domain.DefaultDuration, stored.Duration())
	assert.True(t, at.Equal(stored.ScheduledAt()))
}

func TestCreateBookingHandler_Rejects(t *testing.T) {
	db := setupTestDB(t)
	handler := commands.NewCreateBookingHandler(
		persistence.NewSQLiteBookingRepository(db),
		sharedPersistence.NewSQLiteUnitOfWork(db),
		nil,
	)
	student := uuid.New()

	tests := []struct {
		name    string
		cmd     commands.CreateBookingCommand
		wantErr error
	}{
		{
			name:    "unknown level",
			cmd:     commands.CreateBookingCommand{StudentID: student, InstructorID: uuid.New(), Route: route, Level: "astronaut"},
			wantErr: weather.ErrUnknownLevel,
		},
		{
			name:    "same participant",
			cmd:     commands.CreateBookingCommand{StudentID: student, InstructorID: student, Route: route, Level: "private-pilot"},
			wantErr: domain.ErrSameParticipant,
		},
		{
			name:    "missing instructor",
			cmd:     commands.CreateBookingCommand{StudentID: student, Route: route, Level: "private-pilot"},
			wantErr: domain.ErrMissingParticipant,
		},
		{
			name: "negative duration",
			cmd: commands.CreateBookingCommand{
				StudentID: student, InstructorID: uuid.New(), Duration: -time.Hour, Route: route, Level: "private-pilot",
			},
			wantErr: domain.ErrInvalidDuration,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handler.Handle(context.Background(), tt.cmd)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCancelBookingHandler(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := persistence.NewSQLiteBookingRepository(db)
	outboxRepo := outbox.NewSQLiteRepository(db)
	uow := sharedPersistence.NewSQLiteUnitOfWork(db)

	b, err := domain.NewBooking(uuid.New(), uuid.New(), time.Now().Add(48*time.Hour), time.Hour, route, weather.LevelPrivatePilot)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, b))

	handler := commands.NewCancelBookingHandler(repo, outboxRepo, uow)
	require.NoError(t, handler.Handle(ctx, commands.CancelBookingCommand{BookingID: b.ID(), ActorID: b.StudentID()}))

	stored, err := repo.FindByID(ctx, b.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, stored.Status())

	msgs, err := outboxRepo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.RoutingKeyStatusChanged, msgs[0].RoutingKey)
	assert.Equal(t, b.ID(), msgs[0].AggregateID)

	err = handler.Handle(ctx, commands.CancelBookingCommand{BookingID: b.ID()})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	err = handler.Handle(ctx, commands.CancelBookingCommand{BookingID: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}
