// Package domain describes the notifications sent to booking participants.
package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the reason for a notification.
type Kind string

const (
	KindWeatherAlert        Kind = "weather_alert"
	KindWeatherCleared      Kind = "weather_cleared"
	KindOptionsAvailable    Kind = "options_available"
	KindBookingRescheduled  Kind = "booking_rescheduled"
	KindRescheduleEscalated Kind = "reschedule_escalated"
)

// Notification is a rendered message for the participants of a booking.
type Notification struct {
	ID         uuid.UUID
	Kind       Kind
	BookingID  uuid.UUID
	Recipients []uuid.UUID
	Subject    string
	Body       string
	OccurredAt time.Time
}

// Sender delivers notifications. Email and in-app channels live outside
// this service; implementations hand the message over to them.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// Deduplicator claims a key for a window. Allow returns false when the key
// was already claimed and the claim has not expired. Release drops a claim.
type Deduplicator interface {
	Allow(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
