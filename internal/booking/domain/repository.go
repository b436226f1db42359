package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists bookings. Save inserts unsaved bookings (version 0)
// and otherwise updates only when the stored version still matches,
// returning ErrConcurrentModification if it does not.
type Repository interface {
	Save(ctx context.Context, booking *Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	// FindScheduledBetween returns bookings departing in [from, to] whose
	// status is one of statuses, ordered by departure.
	FindScheduledBetween(ctx context.Context, from, to time.Time, statuses ...Status) ([]*Booking, error)
	FindByStatus(ctx context.Context, status Status) ([]*Booking, error)
}
