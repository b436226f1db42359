package domain

import (
	"time"

	weather "github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/google/uuid"
)

// MaxOptions is the number of options offered per booking.
const MaxOptions = 3

// ConfidenceWeight scales weather confidence (0-100) against proximity (0-100)
// when scoring an option.
const ConfidenceWeight = 10

// RescheduleOption is a replacement slot that passed both the weather and the
// availability checks.
type RescheduleOption struct {
	ID                uuid.UUID
	BookingID         uuid.UUID
	Start             time.Time
	End               time.Time
	Observation       *weather.Observation
	Confidence        int
	ProximityScore    float64
	WeatherValid      bool
	AvailabilityValid bool
	Score             float64
	Rank              int
	CreatedAt         time.Time
}

// NewRescheduleOption builds an unranked option from a candidate. It refuses
// to build an option that failed either check.
func NewRescheduleOption(
	bookingID uuid.UUID,
	slot CandidateSlot,
	duration time.Duration,
	observation *weather.Observation,
	confidence int,
	weatherValid, availabilityValid bool,
) (*RescheduleOption, error) {
	if !weatherValid || !availabilityValid {
		return nil, ErrOptionNotValid
	}

	var obs *weather.Observation
	if observation != nil {
		c := observation.Clone()
		obs = &c
	}

	return &RescheduleOption{
		ID:                uuid.New(),
		BookingID:         bookingID,
		Start:             slot.Start.UTC(),
		End:               slot.Start.Add(duration).UTC(),
		Observation:       obs,
		Confidence:        confidence,
		ProximityScore:    slot.ProximityScore,
		WeatherValid:      true,
		AvailabilityValid: true,
		Score:             Score(slot.ProximityScore, confidence),
		CreatedAt:         time.Now().UTC(),
	}, nil
}

// Score combines proximity with weather confidence.
func Score(proximity float64, confidence int) float64 {
	return proximity + float64(confidence)*ConfidenceWeight
}
