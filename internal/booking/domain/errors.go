package domain

import "errors"

var (
	ErrBookingNotFound        = errors.New("booking not found")
	ErrInvalidTransition      = errors.New("invalid booking status transition")
	ErrConcurrentModification = errors.New("booking was modified concurrently")
	ErrInvalidDuration        = errors.New("duration must be positive")
	ErrSameParticipant        = errors.New("student and instructor must differ")
	ErrMissingParticipant     = errors.New("student and instructor are required")
)
