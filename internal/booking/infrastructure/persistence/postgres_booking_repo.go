package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/preflight/internal/booking/domain"
	sharedPersistence "github.com/felixgeelhaar/preflight/internal/shared/infrastructure/persistence"
	weather "github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `
	id, student_id, instructor_id, scheduled_at, duration_minutes,
	departure_lat, departure_lon, arrival_lat, arrival_lon,
	certification_level, status, version, created_at, updated_at`

// PostgresBookingRepository implements domain.Repository using PostgreSQL.
type PostgresBookingRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresBookingRepository(pool *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{pool: pool}
}

func (r *PostgresBookingRepository) Save(ctx context.Context, b *domain.Booking) error {
	exec := sharedPersistence.Executor(ctx, r.pool)
	route := b.Route()

	if b.Version() == 0 {
		query := `
			INSERT INTO bookings (` + bookingColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12, $13)
		`
		if _, err := exec.Exec(ctx, query,
			b.ID(), b.StudentID(), b.InstructorID(), b.ScheduledAt(), int(b.Duration().Minutes()),
			route.Departure.Lat, route.Departure.Lon, route.Arrival.Lat, route.Arrival.Lon,
			string(b.Level()), string(b.Status()), b.CreatedAt(), b.UpdatedAt(),
		); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		b.SetVersion(1)
		return nil
	}

	query := `
		UPDATE bookings SET
			scheduled_at = $1,
			duration_minutes = $2,
			status = $3,
			version = version + 1,
			updated_at = $4
		WHERE id = $5 AND version = $6
	`
	tag, err := exec.Exec(ctx, query,
		b.ScheduledAt(), int(b.Duration().Minutes()), string(b.Status()), b.UpdatedAt(),
		b.ID(), b.Version(),
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s at version %d", domain.ErrConcurrentModification, b.ID(), b.Version())
	}
	b.SetVersion(b.Version() + 1)
	return nil
}

func (r *PostgresBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	b, err := scanPgBooking(sharedPersistence.Executor(ctx, r.pool).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	return b, err
}

func (r *PostgresBookingRepository) FindScheduledBetween(ctx context.Context, from, to time.Time, statuses ...domain.Status) ([]*domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE scheduled_at >= $1 AND scheduled_at <= $2 AND status = ANY($3)
		ORDER BY scheduled_at, id
	`
	return r.query(ctx, query, from, to, statusStrings(statuses))
}

func (r *PostgresBookingRepository) FindByStatus(ctx context.Context, status domain.Status) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = $1 ORDER BY scheduled_at, id`
	return r.query(ctx, query, string(status))
}

func (r *PostgresBookingRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Booking, error) {
	rows, err := sharedPersistence.Executor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		b, err := scanPgBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func scanPgBooking(row pgx.Row) (*domain.Booking, error) {
	var r bookingRow
	if err := row.Scan(
		&r.ID, &r.StudentID, &r.InstructorID, &r.ScheduledAt, &r.DurationMinutes,
		&r.DepartureLat, &r.DepartureLon, &r.ArrivalLat, &r.ArrivalLon,
		&r.Level, &r.Status, &r.Version, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return r.toDomain()
}

// bookingRow is the driver-neutral shape of a bookings row.
type bookingRow struct {
	ID              uuid.UUID
	StudentID       uuid.UUID
	InstructorID    uuid.UUID
	ScheduledAt     time.Time
	DurationMinutes int
	DepartureLat    float64
	DepartureLon    float64
	ArrivalLat      float64
	ArrivalLon      float64
	Level           string
	Status          string
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (r bookingRow) toDomain() (*domain.Booking, error) {
	status, err := domain.ParseStatus(r.Status)
	if err != nil {
		return nil, err
	}
	level, err := weather.ParseLevel(r.Level)
	if err != nil {
		return nil, err
	}
	route := weather.Route{
		Departure: weather.Coordinate{Lat: r.DepartureLat, Lon: r.DepartureLon},
		Arrival:   weather.Coordinate{Lat: r.ArrivalLat, Lon: r.ArrivalLon},
	}
	return domain.RehydrateBooking(
		r.ID, r.StudentID, r.InstructorID,
		r.ScheduledAt, time.Duration(r.DurationMinutes)*time.Minute,
		route, level, status, r.Version,
		r.CreatedAt, r.UpdatedAt,
	), nil
}

func statusStrings(statuses []domain.Status) []string {
	if len(statuses) == 0 {
		statuses = domain.ScannableStatuses()
	}
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
