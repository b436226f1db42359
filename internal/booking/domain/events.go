package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/preflight/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Booking"

	RoutingKeyStatusChanged = "booking.status-changed"
)

// StatusChanged is raised on every status transition.
type StatusChanged struct {
	sharedDomain.BaseEvent
	BookingID           uuid.UUID  `json:"booking_id"`
	From                Status     `json:"from"`
	To                  Status     `json:"to"`
	ScheduledAt         time.Time  `json:"scheduled_at"`
	PreviousScheduledAt *time.Time `json:"previous_scheduled_at,omitempty"`
}

func NewStatusChanged(b *Booking, from Status) *StatusChanged {
	return &StatusChanged{
		BaseEvent:   sharedDomain.NewBaseEvent(b.ID(), AggregateType, RoutingKeyStatusChanged),
		BookingID:   b.ID(),
		From:        from,
		To:          b.Status(),
		ScheduledAt: b.ScheduledAt(),
	}
}
