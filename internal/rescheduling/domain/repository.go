package domain

import (
	"context"

	"github.com/google/uuid"
)

// OptionRepository stores the ranked options of a booking.
type OptionRepository interface {
	// ReplaceForBooking deletes existing options and inserts options.
	ReplaceForBooking(ctx context.Context, bookingID uuid.UUID, options []*RescheduleOption) error
	// FindByBooking returns options ordered by rank.
	FindByBooking(ctx context.Context, bookingID uuid.UUID) ([]*RescheduleOption, error)
	FindByID(ctx context.Context, id uuid.UUID) (*RescheduleOption, error)
	DeleteForBooking(ctx context.Context, bookingID uuid.UUID) error
}

// PreferenceRepository stores one ranking per (booking, user). Upsert
// overwrites an existing row atomically.
type PreferenceRepository interface {
	Upsert(ctx context.Context, ranking *PreferenceRanking) error
	FindByBooking(ctx context.Context, bookingID uuid.UUID) ([]*PreferenceRanking, error)
	Find(ctx context.Context, bookingID, userID uuid.UUID) (*PreferenceRanking, error)
	DeleteForBooking(ctx context.Context, bookingID uuid.UUID) error
}

// AuditRepository is append-only.
type AuditRepository interface {
	Append(ctx context.Context, entry *AuditEntry) error
	FindByBooking(ctx context.Context, bookingID uuid.UUID) ([]*AuditEntry, error)
}
