package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/preflight/internal/booking/domain"
	sharedPersistence "github.com/felixgeelhaar/preflight/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

// SQLiteBookingRepository implements domain.Repository using SQLite.
type SQLiteBookingRepository struct {
	db *sql.DB
}

func NewSQLiteBookingRepository(db *sql.DB) *SQLiteBookingRepository {
	return &SQLiteBookingRepository{db: db}
}

func (r *SQLiteBookingRepository) Save(ctx context.Context, b *domain.Booking) error {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)
	route := b.Route()

	if b.Version() == 0 {
		query := `
			INSERT INTO bookings (` + bookingColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		`
		if _, err := exec.ExecContext(ctx, query,
			b.ID().String(), b.StudentID().String(), b.InstructorID().String(),
			sharedPersistence.FormatTime(b.ScheduledAt()), int(b.Duration().Minutes()),
			route.Departure.Lat, route.Departure.Lon, route.Arrival.Lat, route.Arrival.Lon,
			string(b.Level()), string(b.Status()),
			sharedPersistence.FormatTime(b.CreatedAt()), sharedPersistence.FormatTime(b.UpdatedAt()),
		); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		b.SetVersion(1)
		return nil
	}

	query := `
		UPDATE bookings SET
			scheduled_at = ?,
			duration_minutes = ?,
			status = ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ? AND version = ?
	`
	result, err := exec.ExecContext(ctx, query,
		sharedPersistence.FormatTime(b.ScheduledAt()), int(b.Duration().Minutes()), string(b.Status()),
		sharedPersistence.FormatTime(b.UpdatedAt()),
		b.ID().String(), b.Version(),
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s at version %d", domain.ErrConcurrentModification, b.ID(), b.Version())
	}
	b.SetVersion(b.Version() + 1)
	return nil
}

func (r *SQLiteBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`

	b, err := scanSQLiteBooking(sharedPersistence.SQLiteExecutor(ctx, r.db).QueryRowContext(ctx, query, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	return b, err
}

func (r *SQLiteBookingRepository) FindScheduledBetween(ctx context.Context, from, to time.Time, statuses ...domain.Status) ([]*domain.Booking, error) {
	names := statusStrings(statuses)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")

	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE scheduled_at >= ? AND scheduled_at <= ? AND status IN (` + placeholders + `)
		ORDER BY scheduled_at, id
	`
	args := []any{sharedPersistence.FormatTime(from), sharedPersistence.FormatTime(to)}
	for _, n := range names {
		args = append(args, n)
	}
	return r.query(ctx, query, args...)
}

func (r *SQLiteBookingRepository) FindByStatus(ctx context.Context, status domain.Status) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = ? ORDER BY scheduled_at, id`
	return r.query(ctx, query, string(status))
}

func (r *SQLiteBookingRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Booking, error) {
	rows, err := sharedPersistence.SQLiteExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		b, err := scanSQLiteBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteBooking(row rowScanner) (*domain.Booking, error) {
	var (
		r                    bookingRow
		id, student, instr   string
		scheduled, create, u string
	)
	if err := row.Scan(
		&id, &student, &instr, &scheduled, &r.DurationMinutes,
		&r.DepartureLat, &r.DepartureLon, &r.ArrivalLat, &r.ArrivalLon,
		&r.Level, &r.Status, &r.Version, &create, &u,
	); err != nil {
		return nil, err
	}

	var err error
	if r.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if r.StudentID, err = uuid.Parse(student); err != nil {
		return nil, err
	}
	if r.InstructorID, err = uuid.Parse(instr); err != nil {
		return nil, err
	}
	if r.ScheduledAt, err = sharedPersistence.ParseTime(scheduled); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = sharedPersistence.ParseTime(create); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = sharedPersistence.ParseTime(u); err != nil {
		return nil, err
	}
	return r.toDomain()
}
