package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/preflight/internal/booking/domain"
	weather "github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/google/uuid"
)

// BookingDTO is a read model of a booking.
type BookingDTO struct {
	ID           uuid.UUID
	StudentID    uuid.UUID
	InstructorID uuid.UUID
	ScheduledAt  time.Time
	EndsAt       time.Time
	Route        weather.Route
	Level        string
	Status       string
	Version      int
}

// GetBookingQuery fetches one booking.
type GetBookingQuery struct {
	BookingID uuid.UUID
}

// GetBookingHandler handles the GetBookingQuery.
type GetBookingHandler struct {
	bookingRepo domain.Repository
}

// NewGetBookingHandler creates a new GetBookingHandler.
func NewGetBookingHandler(bookingRepo domain.Repository) *GetBookingHandler {
	return &GetBookingHandler{bookingRepo: bookingRepo}
}

// Handle executes the GetBookingQuery.
func (h *GetBookingHandler) Handle(ctx context.Context, query GetBookingQuery) (*BookingDTO, error) {
	b, err := h.bookingRepo.FindByID(ctx, query.BookingID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(b)
	return &dto, nil
}

func toDTO(b *domain.Booking) BookingDTO {
	return BookingDTO{
		ID:           b.ID(),
		StudentID:    b.StudentID(),
		InstructorID: b.InstructorID(),
		ScheduledAt:  b.ScheduledAt(),
		EndsAt:       b.EndsAt(),
		Route:        b.Route(),
		Level:        string(b.Level()),
		Status:       string(b.Status()),
		Version:      b.Version(),
	}
}
