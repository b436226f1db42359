package queries

import (
	"context"
	"time"

	booking "github.com/felixgeelhaar/preflight/internal/booking/domain"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/domain"
	"github.com/google/uuid"
)

// ParticipantStatusDTO describes one participant's ranking.
type ParticipantStatusDTO struct {
	UserID      uuid.UUID
	Role        string
	Submitted   bool
	SubmittedAt *time.Time
	Ranked      []uuid.UUID
	Unavailable []uuid.UUID
}

// PreferenceStatusDTO is a data transfer object for a reschedule round.
type PreferenceStatusDTO struct {
	BookingID      uuid.UUID
	BookingStatus  string
	ScheduledAt    time.Time
	Deadline       *time.Time
	DeadlinePassed bool
	AllSubmitted   bool
	Participants   []ParticipantStatusDTO
}

// GetPreferenceStatusQuery contains the parameters for getting the
// preference status of a booking.
type GetPreferenceStatusQuery struct {
	BookingID uuid.UUID
}

// GetPreferenceStatusHandler handles the GetPreferenceStatusQuery.
type GetPreferenceStatusHandler struct {
	bookingRepo    booking.Repository
	preferenceRepo domain.PreferenceRepository
	now            func() time.Time
}

// NewGetPreferenceStatusHandler creates a new GetPreferenceStatusHandler.
func NewGetPreferenceStatusHandler(bookingRepo booking.Repository, preferenceRepo domain.PreferenceRepository) *GetPreferenceStatusHandler {
	return &GetPreferenceStatusHandler{
		bookingRepo:    bookingRepo,
		preferenceRepo: preferenceRepo,
		now:            time.Now,
	}
}

// WithClock overrides the clock used for the deadline check.
func (h *GetPreferenceStatusHandler) WithClock(now func() time.Time) *GetPreferenceStatusHandler {
	h.now = now
	return h
}

// Handle executes the GetPreferenceStatusQuery. A booking without an open
// round yields no deadline and no participants.
func (h *GetPreferenceStatusHandler) Handle(ctx context.Context, query GetPreferenceStatusQuery) (*PreferenceStatusDTO, error) {
	b, err := h.bookingRepo.FindByID(ctx, query.BookingID)
	if err != nil {
		return nil, err
	}
	rankings, err := h.preferenceRepo.FindByBooking(ctx, query.BookingID)
	if err != nil {
		return nil, err
	}

	dto := &PreferenceStatusDTO{
		BookingID:     b.ID(),
		BookingStatus: string(b.Status()),
		ScheduledAt:   b.ScheduledAt(),
		AllSubmitted:  domain.AllSubmitted(rankings),
		Participants:  make([]ParticipantStatusDTO, 0, len(rankings)),
	}

	for _, r := range rankings {
		if dto.Deadline == nil || r.Deadline.Before(*dto.Deadline) {
			deadline := r.Deadline
			dto.Deadline = &deadline
		}
		dto.Participants = append(dto.Participants, ParticipantStatusDTO{
			UserID:      r.UserID,
			Role:        string(r.Role),
			Submitted:   r.IsSubmitted(),
			SubmittedAt: r.SubmittedAt,
			Ranked:      r.Ranked(),
			Unavailable: r.Unavailable,
		})
	}
	if dto.Deadline != nil {
		dto.DeadlinePassed = domain.DeadlinePassed(*dto.Deadline, h.now())
	}
	return dto, nil
}
