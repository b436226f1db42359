package domain

import (
	"fmt"
	"slices"
	"time"

	sharedDomain "github.com/felixgeelhaar/preflight/internal/shared/domain"
	weather "github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/google/uuid"
)

// DefaultDuration is used when a booking is created without a duration.
const DefaultDuration = 2 * time.Hour

// Booking is a scheduled training flight between a student and an
// instructor. Status changes go through the transition table in status.go
// and raise a StatusChanged event.
type Booking struct {
	sharedDomain.BaseAggregateRoot
	studentID    uuid.UUID
	instructorID uuid.UUID
	scheduledAt  time.Time
	duration     time.Duration
	route        weather.Route
	level        weather.CertificationLevel
	status       Status
}

// NewBooking creates a CONFIRMED booking.
func NewBooking(
	studentID, instructorID uuid.UUID,
	scheduledAt time.Time,
	duration time.Duration,
	route weather.Route,
	level weather.CertificationLevel,
) (*Booking, error) {
	if studentID == uuid.Nil || instructorID == uuid.Nil {
		return nil, ErrMissingParticipant
	}
	if studentID == instructorID {
		return nil, ErrSameParticipant
	}
	if duration == 0 {
		duration = DefaultDuration
	}
	if duration < 0 {
		return nil, ErrInvalidDuration
	}
	if err := route.Validate(); err != nil {
		return nil, err
	}
	if _, err := weather.ParseLevel(string(level)); err != nil {
		return nil, err
	}

	return &Booking{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		studentID:         studentID,
		instructorID:      instructorID,
		scheduledAt:       scheduledAt.UTC(),
		duration:          duration,
		route:             route,
		level:             level,
		status:            StatusConfirmed,
	}, nil
}

// Getters
func (b *Booking) StudentID() uuid.UUID              { return b.studentID }
func (b *Booking) InstructorID() uuid.UUID           { return b.instructorID }
func (b *Booking) ScheduledAt() time.Time            { return b.scheduledAt }
func (b *Booking) Duration() time.Duration           { return b.duration }
func (b *Booking) EndsAt() time.Time                 { return b.scheduledAt.Add(b.duration) }
func (b *Booking) Route() weather.Route              { return b.route }
func (b *Booking) Level() weather.CertificationLevel { return b.level }
func (b *Booking) Status() Status                    { return b.status }

// Participants returns the student and the instructor, in that order.
func (b *Booking) Participants() []uuid.UUID {
	return []uuid.UUID{b.studentID, b.instructorID}
}

func (b *Booking) IsParticipant(userID uuid.UUID) bool {
	return slices.Contains(b.Participants(), userID)
}

// MarkAtRisk flags a CONFIRMED booking whose weather no longer validates.
func (b *Booking) MarkAtRisk() error {
	return b.move(StatusAtRisk)
}

// ClearRisk returns an AT_RISK booking to CONFIRMED.
func (b *Booking) ClearRisk() error {
	return b.move(StatusConfirmed)
}

// BeginRescheduling marks the booking as awaiting participant preferences.
func (b *Booking) BeginRescheduling() error {
	return b.move(StatusRescheduling)
}

// CompleteReschedule moves the booking to newStart.
func (b *Booking) CompleteReschedule(newStart time.Time) error {
	if !b.status.CanTransitionTo(StatusRescheduled) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.status, StatusRescheduled)
	}
	previous := b.scheduledAt
	b.scheduledAt = newStart.UTC()
	event := b.transition(StatusRescheduled)
	event.PreviousScheduledAt = &previous
	return nil
}

// Escalate puts a booking that could not be rescheduled back to AT_RISK.
func (b *Booking) Escalate() error {
	if b.status != StatusRescheduling {
		return fmt.Errorf("%w: escalate from %s", ErrInvalidTransition, b.status)
	}
	return b.move(StatusAtRisk)
}

func (b *Booking) Cancel() error {
	return b.move(StatusCancelled)
}

func (b *Booking) Complete() error {
	return b.move(StatusCompleted)
}

func (b *Booking) move(next Status) error {
	if !b.status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.status, next)
	}
	b.transition(next)
	return nil
}

// transition applies an already checked status change.
func (b *Booking) transition(next Status) *StatusChanged {
	from := b.status
	b.status = next
	b.Touch()
	event := NewStatusChanged(b, from)
	b.AddDomainEvent(event)
	return event
}

// RehydrateBooking recreates a booking from persisted state.
func RehydrateBooking(
	id uuid.UUID,
	studentID, instructorID uuid.UUID,
	scheduledAt time.Time,
	duration time.Duration,
	route weather.Route,
	level weather.CertificationLevel,
	status Status,
	version int,
	createdAt, updatedAt time.Time,
) *Booking {
	entity := sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)
	return &Booking{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(entity, version),
		studentID:         studentID,
		instructorID:      instructorID,
		scheduledAt:       scheduledAt.UTC(),
		duration:          duration,
		route:             route,
		level:             level,
		status:            status,
	}
}
