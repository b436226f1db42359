package persistence

import (
	"context"
	"time"

	"github.com/felixgeelhaar/preflight/internal/availability/domain"
	sharedPersistence "github.com/felixgeelhaar/preflight/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresAvailabilityRepository implements domain.Repository using PostgreSQL.
type PostgresAvailabilityRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresAvailabilityRepository(pool *pgxpool.Pool) *PostgresAvailabilityRepository {
	return &PostgresAvailabilityRepository{pool: pool}
}

func (r *PostgresAvailabilityRepository) SavePattern(ctx context.Context, p domain.Pattern) error {
	query := `
		INSERT INTO availability_patterns (id, user_id, day_of_week, start_minute, end_minute, available, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			day_of_week = EXCLUDED.day_of_week,
			start_minute = EXCLUDED.start_minute,
			end_minute = EXCLUDED.end_minute,
			available = EXCLUDED.available
	`
	_, err := sharedPersistence.Executor(ctx, r.pool).Exec(ctx, query,
		p.ID, p.UserID, int(p.DayOfWeek), p.StartMinute, p.EndMinute, p.Available, p.CreatedAt)
	return err
}

func (r *PostgresAvailabilityRepository) SaveOverride(ctx context.Context, o domain.Override) error {
	query := `
		INSERT INTO availability_overrides (id, user_id, date, start_minute, end_minute, available, reason, created_at)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			date = EXCLUDED.date,
			start_minute = EXCLUDED.start_minute,
			end_minute = EXCLUDED.end_minute,
			available = EXCLUDED.available,
			reason = EXCLUDED.reason
	`
	_, err := sharedPersistence.Executor(ctx, r.pool).Exec(ctx, query,
		o.ID, o.UserID, o.Date, o.StartMinute, o.EndMinute, o.Available, o.Reason, o.CreatedAt)
	return err
}

func (r *PostgresAvailabilityRepository) PatternsFor(ctx context.Context, userID uuid.UUID) ([]domain.Pattern, error) {
	query := `
		SELECT id, user_id, day_of_week, start_minute, end_minute, available, created_at
		FROM availability_patterns
		WHERE user_id = $1
		ORDER BY day_of_week, start_minute
	`
	rows, err := sharedPersistence.Executor(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patterns []domain.Pattern
	for rows.Next() {
		var (
			p   domain.Pattern
			day int16
		)
		if err := rows.Scan(&p.ID, &p.UserID, &day, &p.StartMinute, &p.EndMinute, &p.Available, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.DayOfWeek = time.Weekday(day)
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

func (r *PostgresAvailabilityRepository) OverridesBetween(ctx context.Context, userID uuid.UUID, fromDate, toDate string) ([]domain.Override, error) {
	query := `
		SELECT id, user_id, to_char(date, 'YYYY-MM-DD'), start_minute, end_minute, available, reason, created_at
		FROM availability_overrides
		WHERE user_id = $1 AND date BETWEEN $2::date AND $3::date
		ORDER BY date, start_minute
	`
	rows, err := sharedPersistence.Executor(ctx, r.pool).Query(ctx, query, userID, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []domain.Override
	for rows.Next() {
		var o domain.Override
		if err := rows.Scan(&o.ID, &o.UserID, &o.Date, &o.StartMinute, &o.EndMinute, &o.Available, &o.Reason, &o.CreatedAt); err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}
