package persistence

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/preflight/internal/rescheduling/domain"
	sharedPersistence "github.com/felixgeelhaar/preflight/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresAuditRepository implements domain.AuditRepository using PostgreSQL.
type PostgresAuditRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresAuditRepository(pool *pgxpool.Pool) *PostgresAuditRepository {
	return &PostgresAuditRepository{pool: pool}
}

func (r *PostgresAuditRepository) Append(ctx context.Context, e *domain.AuditEntry) error {
	query := `INSERT INTO audit_entries (` + auditColumns + `) VALUES ($1, $2, $3, $4, $5)`
	if _, err := sharedPersistence.Executor(ctx, r.pool).Exec(ctx, query,
		e.ID, e.BookingID, string(e.Action), e.Detail, e.OccurredAt,
	); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (r *PostgresAuditRepository) FindByBooking(ctx context.Context, bookingID uuid.UUID) ([]*domain.AuditEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_entries WHERE booking_id = $1 ORDER BY occurred_at, id`

	rows, err := sharedPersistence.Executor(ctx, r.pool).Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		var (
			e      domain.AuditEntry
			action string
		)
		if err := rows.Scan(&e.ID, &e.BookingID, &action, &e.Detail, &e.OccurredAt); err != nil {
			return nil, err
		}
		e.Action = domain.AuditAction(action)
		e.OccurredAt = e.OccurredAt.UTC()
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
