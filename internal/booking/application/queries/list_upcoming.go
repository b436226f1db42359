package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/preflight/internal/booking/domain"
)

// DefaultUpcomingWindow is how far ahead ListUpcoming looks by default.
const DefaultUpcomingWindow = 7 * 24 * time.Hour

// ListUpcomingQuery lists bookings departing within Within of now.
type ListUpcomingQuery struct {
	Within time.Duration
	// Statuses defaults to the statuses the conflict scan evaluates.
	Statuses []domain.Status
}

// ListUpcomingHandler handles the ListUpcomingQuery.
type ListUpcomingHandler struct {
	bookingRepo domain.Repository
	now         func() time.Time
}

// NewListUpcomingHandler creates a new ListUpcomingHandler.
func NewListUpcomingHandler(bookingRepo domain.Repository) *ListUpcomingHandler {
	return &ListUpcomingHandler{bookingRepo: bookingRepo, now: time.Now}
}

// WithClock overrides the time source.
func (h *ListUpcomingHandler) WithClock(now func() time.Time) *ListUpcomingHandler {
	h.now = now
	return h
}

// Handle executes the ListUpcomingQuery.
func (h *ListUpcomingHandler) Handle(ctx context.Context, query ListUpcomingQuery) ([]BookingDTO, error) {
	within := query.Within
	if within <= 0 {
		within = DefaultUpcomingWindow
	}
	now := h.now().UTC()

	bookings, err := h.bookingRepo.FindScheduledBetween(ctx, now, now.Add(within), query.Statuses...)
	if err != nil {
		return nil, err
	}
	out := make([]BookingDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toDTO(b))
	}
	return out, nil
}
