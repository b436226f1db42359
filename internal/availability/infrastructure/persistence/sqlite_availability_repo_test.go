package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/preflight/internal/availability/application/services"
	"github.com/felixgeelhaar/preflight/internal/availability/domain"
	"github.com/felixgeelhaar/preflight/internal/availability/infrastructure/persistence"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/migrations"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) *persistence.SQLiteAvailabilityRepository {
	t.Helper()
	ctx := context.Background()

	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: sqlite.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, migrations.Run(ctx, conn))
	return persistence.NewSQLiteAvailabilityRepository(conn.(*sqlite.Connection).DB())
}

func TestSQLiteAvailabilityRepository_Patterns(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	user := uuid.New()

	wed, err := domain.NewPattern(user, time.Wednesday, 480, 1080, true)
	require.NoError(t, err)
	mon, err := domain.NewPattern(user, time.Monday, 600, 720, false)
	require.NoError(t, err)
	other, err := domain.NewPattern(uuid.New(), time.Monday, 0, 60, true)
	require.NoError(t, err)

	for _, p := range []domain.Pattern{wed, mon, other} {
		require.NoError(t, repo.SavePattern(ctx, p))
	}

	got, err := repo.PatternsFor(ctx, user)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, mon.ID, got[0].ID)
	assert.Equal(t, time.Monday, got[0].DayOfWeek)
	assert.False(t, got[0].Available)
	assert.Equal(t, wed.ID, got[1].ID)
	assert.Equal(t, 1080, got[1].EndMinute)
}

func TestSQLiteAvailabilityRepository_OverridesBetween(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	user := uuid.New()

	for _, date := range []string{"2026-05-30", "2026-06-01", "2026-06-03", "2026-06-09"} {
		o, err := domain.NewOverride(user, date, 0, 60, false, "maintenance")
		require.NoError(t, err)
		require.NoError(t, repo.SaveOverride(ctx, o))
	}

	got, err := repo.OverridesBetween(ctx, user, "2026-06-01", "2026-06-08")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2026-06-01", got[0].Date)
	assert.Equal(t, "2026-06-03", got[1].Date)
	assert.Equal(t, "maintenance", got[0].Reason)
}

func TestSQLiteAvailabilityRepository_WithService(t *testing.T) {
	ctx := context.Background()
	svc := services.NewService(newRepo(t), time.UTC, nil)
	instructor := uuid.New()

	_, err := svc.AddPattern(ctx, instructor, time.Monday, 8*60, 18*60, true)
	require.NoError(t, err)
	_, err = svc.AddOverride(ctx, instructor, "2026-06-01", 8*60, 18*60, false, "sick day")
	require.NoError(t, err)

	mondayNine := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	ok, err := svc.IsAvailable(ctx, instructor, mondayNine, mondayNine.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.IsAvailable(ctx, instructor, mondayNine.AddDate(0, 0, 7), mondayNine.AddDate(0, 0, 7).Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)
}
