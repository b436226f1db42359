package domain

import "errors"

var (
	ErrInvalidRange   = errors.New("availability range must satisfy 0 <= start < end <= 1440")
	ErrInvalidWeekday = errors.New("day of week must be between 0 (Sunday) and 6")
	ErrInvalidDate    = errors.New("override date must be formatted as YYYY-MM-DD")
	ErrMissingUser    = errors.New("user is required")
)
