package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/preflight/internal/rescheduling/domain"
	sharedPersistence "github.com/felixgeelhaar/preflight/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresOptionRepository implements domain.OptionRepository using PostgreSQL.
type PostgresOptionRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresOptionRepository(pool *pgxpool.Pool) *PostgresOptionRepository {
	return &PostgresOptionRepository{pool: pool}
}

// ReplaceForBooking should run inside a unit of work so the delete and the
// inserts commit together.
func (r *PostgresOptionRepository) ReplaceForBooking(ctx context.Context, bookingID uuid.UUID, options []*domain.RescheduleOption) error {
	exec := sharedPersistence.Executor(ctx, r.pool)

	if _, err := exec.Exec(ctx, `DELETE FROM reschedule_options WHERE booking_id = $1`, bookingID); err != nil {
		return fmt.Errorf("delete reschedule options: %w", err)
	}

	query := `
		INSERT INTO reschedule_options (` + optionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	for _, opt := range options {
		obs, err := encodeObservation(opt.Observation)
		if err != nil {
			return err
		}
		if _, err := exec.Exec(ctx, query,
			opt.ID, bookingID, opt.Start, opt.End, opt.Rank, opt.Score, opt.ProximityScore,
			opt.Confidence, opt.WeatherValid, opt.AvailabilityValid, obs, opt.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert reschedule option: %w", err)
		}
	}
	return nil
}

func (r *PostgresOptionRepository) FindByBooking(ctx context.Context, bookingID uuid.UUID) ([]*domain.RescheduleOption, error) {
	query := `SELECT ` + optionColumns + ` FROM reschedule_options WHERE booking_id = $1 ORDER BY rank`

	rows, err := sharedPersistence.Executor(ctx, r.pool).Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []*domain.RescheduleOption
	for rows.Next() {
		opt, err := scanPgOption(rows)
		if err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
	return options, rows.Err()
}

func (r *PostgresOptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.RescheduleOption, error) {
	query := `SELECT ` + optionColumns + ` FROM reschedule_options WHERE id = $1`

	opt, err := scanPgOption(sharedPersistence.Executor(ctx, r.pool).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOptionNotFound
	}
	return opt, err
}

func (r *PostgresOptionRepository) DeleteForBooking(ctx context.Context, bookingID uuid.UUID) error {
	_, err := sharedPersistence.Executor(ctx, r.pool).Exec(ctx, `DELETE FROM reschedule_options WHERE booking_id = $1`, bookingID)
	return err
}

func scanPgOption(row pgx.Row) (*domain.RescheduleOption, error) {
	var (
		opt domain.RescheduleOption
		obs []byte
	)
	if err := row.Scan(
		&opt.ID, &opt.BookingID, &opt.Start, &opt.End, &opt.Rank, &opt.Score, &opt.ProximityScore,
		&opt.Confidence, &opt.WeatherValid, &opt.AvailabilityValid, &obs, &opt.CreatedAt,
	); err != nil {
		return nil, err
	}

	observation, err := decodeObservation(obs)
	if err != nil {
		return nil, fmt.Errorf("decode option observation: %w", err)
	}
	opt.Observation = observation
	opt.Start, opt.End, opt.CreatedAt = opt.Start.UTC(), opt.End.UTC(), opt.CreatedAt.UTC()
	return &opt, nil
}
