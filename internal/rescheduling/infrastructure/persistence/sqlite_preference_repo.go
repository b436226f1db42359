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

// SQLitePreferenceRepository implements domain.PreferenceRepository using SQLite.
type SQLitePreferenceRepository struct {
	db *sql.DB
}

func NewSQLitePreferenceRepository(db *sql.DB) *SQLitePreferenceRepository {
	return &SQLitePreferenceRepository{db: db}
}

func (r *SQLitePreferenceRepository) Upsert(ctx context.Context, p *domain.PreferenceRanking) error {
	unavailable, err := encodeIDs(p.Unavailable)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO preference_rankings (` + preferenceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (booking_id, user_id) DO UPDATE SET
			role = excluded.role,
			option1_id = excluded.option1_id,
			option2_id = excluded.option2_id,
			option3_id = excluded.option3_id,
			unavailable = excluded.unavailable,
			deadline = excluded.deadline,
			submitted_at = excluded.submitted_at,
			updated_at = excluded.updated_at
	`
	_, err = sharedPersistence.SQLiteExecutor(ctx, r.db).ExecContext(ctx, query,
		p.BookingID.String(), p.UserID.String(), string(p.Role),
		nullID(p.Option1), nullID(p.Option2), nullID(p.Option3),
		string(unavailable), sharedPersistence.FormatTime(p.Deadline),
		sharedPersistence.NullTime(p.SubmittedAt),
		sharedPersistence.FormatTime(p.CreatedAt), sharedPersistence.FormatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert preference ranking: %w", err)
	}
	return nil
}

func (r *SQLitePreferenceRepository) FindByBooking(ctx context.Context, bookingID uuid.UUID) ([]*domain.PreferenceRanking, error) {
	query := `SELECT ` + preferenceColumns + ` FROM preference_rankings WHERE booking_id = ? ORDER BY role DESC`

	rows, err := sharedPersistence.SQLiteExecutor(ctx, r.db).QueryContext(ctx, query, bookingID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rankings []*domain.PreferenceRanking
	for rows.Next() {
		p, err := scanSQLitePreference(rows)
		if err != nil {
			return nil, err
		}
		rankings = append(rankings, p)
	}
	return rankings, rows.Err()
}

func (r *SQLitePreferenceRepository) Find(ctx context.Context, bookingID, userID uuid.UUID) (*domain.PreferenceRanking, error) {
	query := `SELECT ` + preferenceColumns + ` FROM preference_rankings WHERE booking_id = ? AND user_id = ?`

	p, err := scanSQLitePreference(sharedPersistence.SQLiteExecutor(ctx, r.db).QueryRowContext(ctx, query,
		bookingID.String(), userID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPreferenceNotFound
	}
	return p, err
}

func (r *SQLitePreferenceRepository) DeleteForBooking(ctx context.Context, bookingID uuid.UUID) error {
	_, err := sharedPersistence.SQLiteExecutor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM preference_rankings WHERE booking_id = ?`, bookingID.String())
	return err
}

func nullID(id *uuid.UUID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

func parseNullID(s sql.NullString) (*uuid.UUID, error) {
	if !s.Valid {
		return nil, nil
	}
	id, err := uuid.Parse(s.String)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func scanSQLitePreference(row rowScanner) (*domain.PreferenceRanking, error) {
	var (
		p                       domain.PreferenceRanking
		bookingID, userID, role string
		opt1, opt2, opt3        sql.NullString
		unavailable, deadline   string
		submitted               sql.NullString
		created, updated        string
	)
	if err := row.Scan(
		&bookingID, &userID, &role, &opt1, &opt2, &opt3,
		&unavailable, &deadline, &submitted, &created, &updated,
	); err != nil {
		return nil, err
	}

	var err error
	if p.BookingID, err = uuid.Parse(bookingID); err != nil {
		return nil, err
	}
	if p.UserID, err = uuid.Parse(userID); err != nil {
		return nil, err
	}
	if p.Role, err = domain.ParseRole(role); err != nil {
		return nil, err
	}
	if p.Option1, err = parseNullID(opt1); err != nil {
		return nil, err
	}
	if p.Option2, err = parseNullID(opt2); err != nil {
		return nil, err
	}
	if p.Option3, err = parseNullID(opt3); err != nil {
		return nil, err
	}
	if p.Unavailable, err = decodeIDs([]byte(unavailable)); err != nil {
		return nil, fmt.Errorf("decode unavailable options: %w", err)
	}
	if p.Deadline, err = sharedPersistence.ParseTime(deadline); err != nil {
		return nil, err
	}
	if p.SubmittedAt, err = sharedPersistence.ParseNullTime(submitted); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = sharedPersistence.ParseTime(created); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = sharedPersistence.ParseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}
