package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/felixgeelhaar/preflight/internal/rescheduling/domain"
	sharedPersistence "github.com/felixgeelhaar/preflight/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

// SQLiteAuditRepository implements domain.AuditRepository using SQLite.
type SQLiteAuditRepository struct {
	db *sql.DB
}

func NewSQLiteAuditRepository(db *sql.DB) *SQLiteAuditRepository {
	return &SQLiteAuditRepository{db: db}
}

func (r *SQLiteAuditRepository) Append(ctx context.Context, e *domain.AuditEntry) error {
	query := `INSERT INTO audit_entries (` + auditColumns + `) VALUES (?, ?, ?, ?, ?)`
	if _, err := sharedPersistence.SQLiteExecutor(ctx, r.db).ExecContext(ctx, query,
		e.ID.String(), e.BookingID.String(), string(e.Action), e.Detail,
		sharedPersistence.FormatTime(e.OccurredAt),
	); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (r *SQLiteAuditRepository) FindByBooking(ctx context.Context, bookingID uuid.UUID) ([]*domain.AuditEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_entries WHERE booking_id = ? ORDER BY occurred_at, rowid`

	rows, err := sharedPersistence.SQLiteExecutor(ctx, r.db).QueryContext(ctx, query, bookingID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		var (
			e                         domain.AuditEntry
			id, booking, action, when string
		)
		if err := rows.Scan(&id, &booking, &action, &e.Detail, &when); err != nil {
			return nil, err
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if e.BookingID, err = uuid.Parse(booking); err != nil {
			return nil, err
		}
		if e.OccurredAt, err = sharedPersistence.ParseTime(when); err != nil {
			return nil, err
		}
		e.Action = domain.AuditAction(action)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
