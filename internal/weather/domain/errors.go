package domain

import "errors"

var (
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrUnknownLevel      = errors.New("unknown certification level")
	ErrInvalidMinimums   = errors.New("invalid certification minimums")
	// ErrProviderFailure means no provider could supply an observation.
	// Callers must never substitute stale or synthetic data for it.
	ErrProviderFailure = errors.New("weather providers unavailable")
	// ErrMalformedPayload is returned when a provider response cannot be
	// normalized.
	ErrMalformedPayload = errors.New("malformed weather payload")
)
