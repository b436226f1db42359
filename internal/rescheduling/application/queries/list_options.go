package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/preflight/internal/rescheduling/domain"
	"github.com/google/uuid"
)

// OptionDTO is a data transfer object for reschedule options.
type OptionDTO struct {
	ID              uuid.UUID
	Rank            int
	Start           time.Time
	End             time.Time
	Score           float64
	ProximityScore  float64
	Confidence      int
	VisibilityMiles *float64
	WindSpeedKnots  *float64
	Conditions      []string
}

// ListOptionsQuery contains the parameters for listing the options of a booking.
type ListOptionsQuery struct {
	BookingID uuid.UUID
}

// ListOptionsHandler handles the ListOptionsQuery.
type ListOptionsHandler struct {
	optionRepo domain.OptionRepository
}

// NewListOptionsHandler creates a new ListOptionsHandler.
func NewListOptionsHandler(optionRepo domain.OptionRepository) *ListOptionsHandler {
	return &ListOptionsHandler{optionRepo: optionRepo}
}

// Handle executes the ListOptionsQuery. Options come back best rank first.
func (h *ListOptionsHandler) Handle(ctx context.Context, query ListOptionsQuery) ([]OptionDTO, error) {
	options, err := h.optionRepo.FindByBooking(ctx, query.BookingID)
	if err != nil {
		return nil, err
	}

	dtos := make([]OptionDTO, len(options))
	for i, opt := range options {
		dto := OptionDTO{
			ID:             opt.ID,
			Rank:           opt.Rank,
			Start:          opt.Start,
			End:            opt.End,
			Score:          opt.Score,
			ProximityScore: opt.ProximityScore,
			Confidence:     opt.Confidence,
		}
		if obs := opt.Observation; obs != nil {
			visibility, wind := obs.VisibilityMiles, obs.WindSpeedKnots
			dto.VisibilityMiles = &visibility
			dto.WindSpeedKnots = &wind
			dto.Conditions = obs.Conditions
		}
		dtos[i] = dto
	}
	return dtos, nil
}
