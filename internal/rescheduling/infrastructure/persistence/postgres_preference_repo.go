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

// PostgresPreferenceRepository implements domain.PreferenceRepository using PostgreSQL.
type PostgresPreferenceRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresPreferenceRepository(pool *pgxpool.Pool) *PostgresPreferenceRepository {
	return &PostgresPreferenceRepository{pool: pool}
}

func (r *PostgresPreferenceRepository) Upsert(ctx context.Context, p *domain.PreferenceRanking) error {
	unavailable, err := encodeIDs(p.Unavailable)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO preference_rankings (` + preferenceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (booking_id, user_id) DO UPDATE SET
			role = EXCLUDED.role,
			option1_id = EXCLUDED.option1_id,
			option2_id = EXCLUDED.option2_id,
			option3_id = EXCLUDED.option3_id,
			unavailable = EXCLUDED.unavailable,
			deadline = EXCLUDED.deadline,
			submitted_at = EXCLUDED.submitted_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err = sharedPersistence.Executor(ctx, r.pool).Exec(ctx, query,
		p.BookingID, p.UserID, string(p.Role), p.Option1, p.Option2, p.Option3,
		unavailable, p.Deadline, p.SubmittedAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert preference ranking: %w", err)
	}
	return nil
}

func (r *PostgresPreferenceRepository) FindByBooking(ctx context.Context, bookingID uuid.UUID) ([]*domain.PreferenceRanking, error) {
	query := `SELECT ` + preferenceColumns + ` FROM preference_rankings WHERE booking_id = $1 ORDER BY role DESC`

	rows, err := sharedPersistence.Executor(ctx, r.pool).Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rankings []*domain.PreferenceRanking
	for rows.Next() {
		p, err := scanPgPreference(rows)
		if err != nil {
			return nil, err
		}
		rankings = append(rankings, p)
	}
	return rankings, rows.Err()
}

func (r *PostgresPreferenceRepository) Find(ctx context.Context, bookingID, userID uuid.UUID) (*domain.PreferenceRanking, error) {
	query := `SELECT ` + preferenceColumns + ` FROM preference_rankings WHERE booking_id = $1 AND user_id = $2`

	p, err := scanPgPreference(sharedPersistence.Executor(ctx, r.pool).QueryRow(ctx, query, bookingID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPreferenceNotFound
	}
	return p, err
}

func (r *PostgresPreferenceRepository) DeleteForBooking(ctx context.Context, bookingID uuid.UUID) error {
	_, err := sharedPersistence.Executor(ctx, r.pool).Exec(ctx, `DELETE FROM preference_rankings WHERE booking_id = $1`, bookingID)
	return err
}

func scanPgPreference(row pgx.Row) (*domain.PreferenceRanking, error) {
	var (
		p           domain.PreferenceRanking
		role        string
		unavailable []byte
	)
	if err := row.Scan(
		&p.BookingID, &p.UserID, &role, &p.Option1, &p.Option2, &p.Option3,
		&unavailable, &p.Deadline, &p.SubmittedAt, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if p.Role, err = domain.ParseRole(role); err != nil {
		return nil, err
	}
	if p.Unavailable, err = decodeIDs(unavailable); err != nil {
		return nil, fmt.Errorf("decode unavailable options: %w", err)
	}
	p.Deadline, p.CreatedAt, p.UpdatedAt = p.Deadline.UTC(), p.CreatedAt.UTC(), p.UpdatedAt.UTC()
	if p.SubmittedAt != nil {
		at := p.SubmittedAt.UTC()
		p.SubmittedAt = &at
	}
	return &p, nil
}
