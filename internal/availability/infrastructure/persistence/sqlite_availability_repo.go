package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/felixgeelhaar/preflight/internal/availability/domain"
	sharedPersistence "github.com/felixgeelhaar/preflight/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

// SQLiteAvailabilityRepository implements domain.Repository using SQLite.
type SQLiteAvailabilityRepository struct {
	db *sql.DB
}

func NewSQLiteAvailabilityRepository(db *sql.DB) *SQLiteAvailabilityRepository {
	return &SQLiteAvailabilityRepository{db: db}
}

func (r *SQLiteAvailabilityRepository) SavePattern(ctx context.Context, p domain.Pattern) error {
	query := `
		INSERT INTO availability_patterns (id, user_id, day_of_week, start_minute, end_minute, available, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			day_of_week = excluded.day_of_week,
			start_minute = excluded.start_minute,
			end_minute = excluded.end_minute,
			available = excluded.available
	`
	_, err := sharedPersistence.SQLiteExecutor(ctx, r.db).ExecContext(ctx, query,
		p.ID.String(), p.UserID.String(), int(p.DayOfWeek), p.StartMinute, p.EndMinute,
		p.Available, sharedPersistence.FormatTime(p.CreatedAt))
	return err
}

func (r *SQLiteAvailabilityRepository) SaveOverride(ctx context.Context, o domain.Override) error {
	query := `
		INSERT INTO availability_overrides (id, user_id, date, start_minute, end_minute, available, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			date = excluded.date,
			start_minute = excluded.start_minute,
			end_minute = excluded.end_minute,
			available = excluded.available,
			reason = excluded.reason
	`
	_, err := sharedPersistence.SQLiteExecutor(ctx, r.db).ExecContext(ctx, query,
		o.ID.String(), o.UserID.String(), o.Date, o.StartMinute, o.EndMinute,
		o.Available, o.Reason, sharedPersistence.FormatTime(o.CreatedAt))
	return err
}

func (r *SQLiteAvailabilityRepository) PatternsFor(ctx context.Context, userID uuid.UUID) ([]domain.Pattern, error) {
	query := `
		SELECT id, user_id, day_of_week, start_minute, end_minute, available, created_at
		FROM availability_patterns
		WHERE user_id = ?
		ORDER BY day_of_week, start_minute
	`
	rows, err := sharedPersistence.SQLiteExecutor(ctx, r.db).QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patterns []domain.Pattern
	for rows.Next() {
		var (
			p                   domain.Pattern
			id, user, createdAt string
			day                 int
		)
		if err := rows.Scan(&id, &user, &day, &p.StartMinute, &p.EndMinute, &p.Available, &createdAt); err != nil {
			return nil, err
		}
		if p.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if p.UserID, err = uuid.Parse(user); err != nil {
			return nil, err
		}
		if p.CreatedAt, err = sharedPersistence.ParseTime(createdAt); err != nil {
			return nil, err
		}
		p.DayOfWeek = time.Weekday(day)
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

func (r *SQLiteAvailabilityRepository) OverridesBetween(ctx context.Context, userID uuid.UUID, fromDate, toDate string) ([]domain.Override, error) {
	query := `
		SELECT id, user_id, date, start_minute, end_minute, available, reason, created_at
		FROM availability_overrides
		WHERE user_id = ? AND date BETWEEN ? AND ?
		ORDER BY date, start_minute
	`
	rows, err := sharedPersistence.SQLiteExecutor(ctx, r.db).QueryContext(ctx, query, userID.String(), fromDate, toDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []domain.Override
	for rows.Next() {
		var (
			o                   domain.Override
			id, user, createdAt string
		)
		if err := rows.Scan(&id, &user, &o.Date, &o.StartMinute, &o.EndMinute, &o.Available, &o.Reason, &createdAt); err != nil {
			return nil, err
		}
		if o.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if o.UserID, err = uuid.Parse(user); err != nil {
			return nil, err
		}
		if o.CreatedAt, err = sharedPersistence.ParseTime(createdAt); err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}
