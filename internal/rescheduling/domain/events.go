package domain

import (
	"time"

	booking "github.com/felixgeelhaar/preflight/internal/booking/domain"
	sharedDomain "github.com/felixgeelhaar/preflight/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Reschedule"

	RoutingKeyWeatherAlert        = "notification.weather-alert"
	RoutingKeyOptionsAvailable    = "notification.options-available"
	RoutingKeyWeatherCleared      = "notification.weather-cleared"
	RoutingKeyBookingRescheduled  = "notification.booking-rescheduled"
	RoutingKeyRescheduleEscalated = "notification.reschedule-escalated"
)

// Recipients identifies who a notification is for.
type Recipients struct {
	BookingID    uuid.UUID `json:"booking_id"`
	StudentID    uuid.UUID `json:"student_id"`
	InstructorID uuid.UUID `json:"instructor_id"`
}

func recipientsOf(b *booking.Booking) Recipients {
	return Recipients{BookingID: b.ID(), StudentID: b.StudentID(), InstructorID: b.InstructorID()}
}

type WeatherAlert struct {
	sharedDomain.BaseEvent
	Recipients
	ScheduledAt time.Time `json:"scheduled_at"`
	Severity    Severity  `json:"severity"`
	Violations  []string  `json:"violations"`
	Confidence  int       `json:"confidence"`
}

func NewWeatherAlert(b *booking.Booking, result ConflictResult) *WeatherAlert {
	return &WeatherAlert{
		BaseEvent:   sharedDomain.NewBaseEventAt(b.ID(), AggregateType, RoutingKeyWeatherAlert, result.EvaluatedAt),
		Recipients:  recipientsOf(b),
		ScheduledAt: b.ScheduledAt(),
		Severity:    result.Severity,
		Violations:  result.Verdict.Violations,
		Confidence:  result.Verdict.Confidence,
	}
}

type WeatherCleared struct {
	sharedDomain.BaseEvent
	Recipients
	ScheduledAt time.Time `json:"scheduled_at"`
}

func NewWeatherCleared(b *booking.Booking, at time.Time) *WeatherCleared {
	return &WeatherCleared{
		BaseEvent:   sharedDomain.NewBaseEventAt(b.ID(), AggregateType, RoutingKeyWeatherCleared, at),
		Recipients:  recipientsOf(b),
		ScheduledAt: b.ScheduledAt(),
	}
}

type OptionsAvailable struct {
	sharedDomain.BaseEvent
	Recipients
	OptionCount int       `json:"option_count"`
	Deadline    time.Time `json:"deadline"`
}

func NewOptionsAvailable(b *booking.Booking, optionCount int, deadline, at time.Time) *OptionsAvailable {
	return &OptionsAvailable{
		BaseEvent:   sharedDomain.NewBaseEventAt(b.ID(), AggregateType, RoutingKeyOptionsAvailable, at),
		Recipients:  recipientsOf(b),
		OptionCount: optionCount,
		Deadline:    deadline,
	}
}

type BookingRescheduled struct {
	sharedDomain.BaseEvent
	Recipients
	OptionID            uuid.UUID `json:"option_id"`
	PreviousScheduledAt time.Time `json:"previous_scheduled_at"`
	ScheduledAt         time.Time `json:"scheduled_at"`
}

func NewBookingRescheduled(b *booking.Booking, optionID uuid.UUID, previous, at time.Time) *BookingRescheduled {
	return &BookingRescheduled{
		BaseEvent:           sharedDomain.NewBaseEventAt(b.ID(), AggregateType, RoutingKeyBookingRescheduled, at),
		Recipients:          recipientsOf(b),
		OptionID:            optionID,
		PreviousScheduledAt: previous,
		ScheduledAt:         b.ScheduledAt(),
	}
}

type RescheduleEscalated struct {
	sharedDomain.BaseEvent
	Recipients
	ScheduledAt time.Time `json:"scheduled_at"`
	Reason      string    `json:"reason"`
}

func NewRescheduleEscalated(b *booking.Booking, reason string, at time.Time) *RescheduleEscalated {
	return &RescheduleEscalated{
		BaseEvent:   sharedDomain.NewBaseEventAt(b.ID(), AggregateType, RoutingKeyRescheduleEscalated, at),
		Recipients:  recipientsOf(b),
		ScheduledAt: b.ScheduledAt(),
		Reason:      reason,
	}
}
