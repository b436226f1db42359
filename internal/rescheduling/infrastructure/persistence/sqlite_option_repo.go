package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/preflight/internal/rescheduling/domain"
	sharedPersistence "github.com/felixgeelhaar/preflight/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// SQLiteOptionRepository implements domain.OptionRepository using SQLite.
type SQLiteOptionRepository struct {
	db *sql.DB
}

func NewSQLiteOptionRepository(db *sql.DB) *SQLiteOptionRepository {
	return &SQLiteOptionRepository{db: db}
}

// ReplaceForBooking should run inside a unit of work so the delete and the
// inserts commit together.
func (r *SQLiteOptionRepository) ReplaceForBooking(ctx context.Context, bookingID uuid.UUID, options []*domain.RescheduleOption) error {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)

	if _, err := exec.ExecContext(ctx, `DELETE FROM reschedule_options WHERE booking_id = ?`, bookingID.String()); err != nil {
		return fmt.Errorf("delete reschedule options: %w", err)
	}

	query := `
		INSERT INTO reschedule_options (` + optionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, opt := range options {
		obs, err := encodeObservation(opt.Observation)
		if err != nil {
			return err
		}
		var observation sql.NullString
		if obs != nil {
			observation = sql.NullString{String: string(obs), Valid: true}
		}
		if _, err := exec.ExecContext(ctx, query,
			opt.ID.String(), bookingID.String(),
			sharedPersistence.FormatTime(opt.Start), sharedPersistence.FormatTime(opt.End),
			opt.Rank, opt.Score, opt.ProximityScore, opt.Confidence,
			opt.WeatherValid, opt.AvailabilityValid, observation,
			sharedPersistence.FormatTime(opt.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert reschedule option: %w", err)
		}
	}
	return nil
}

func (r *SQLiteOptionRepository) FindByBooking(ctx context.Context, bookingID uuid.UUID) ([]*domain.RescheduleOption, error) {
	query := `SELECT ` + optionColumns + ` FROM reschedule_options WHERE booking_id = ? ORDER BY rank`

	rows, err := sharedPersistence.SQLiteExecutor(ctx, r.db).QueryContext(ctx, query, bookingID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []*domain.RescheduleOption
	for rows.Next() {
		opt, err := scanSQLiteOption(rows)
		if err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
	return options, rows.Err()
}

func (r *SQLiteOptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.RescheduleOption, error) {
	query := `SELECT ` + optionColumns + ` FROM reschedule_options WHERE id = ?`

	opt, err := scanSQLiteOption(sharedPersistence.SQLiteExecutor(ctx, r.db).QueryRowContext(ctx, query, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOptionNotFound
	}
	return opt, err
}

func (r *SQLiteOptionRepository) DeleteForBooking(ctx context.Context, bookingID uuid.UUID) error {
	_, err := sharedPersistence.SQLiteExecutor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM reschedule_options WHERE booking_id = ?`, bookingID.String())
	return err
}

func scanSQLiteOption(row rowScanner) (*domain.RescheduleOption, error) {
	var (
		opt                 domain.RescheduleOption
		id, bookingID       string
		start, end, created string
		observation         sql.NullString
	)
	if err := row.Scan(
		&id, &bookingID, &start, &end, &opt.Rank, &opt.Score, &opt.ProximityScore,
		&opt.Confidence, &opt.WeatherValid, &opt.AvailabilityValid, &observation, &created,
	); err != nil {
		return nil, err
	}

	var err error
	if opt.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if opt.BookingID, err = uuid.Parse(bookingID); err != nil {
		return nil, err
	}
	if opt.Start, err = sharedPersistence.ParseTime(start); err != nil {
		return nil, err
	}
	if opt.End, err = sharedPersistence.ParseTime(end); err != nil {
		return nil, err
	}
	if opt.CreatedAt, err = sharedPersistence.ParseTime(created); err != nil {
		return nil, err
	}
	if observation.Valid {
		if opt.Observation, err = decodeObservation([]byte(observation.String)); err != nil {
			return nil, fmt.Errorf("decode option observation: %w", err)
		}
	}
	return &opt, nil
}
