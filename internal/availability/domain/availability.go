package domain

import (
	"time"

	"github.com/google/uuid"
)

// MinutesPerDay bounds the minute-of-day ranges used by patterns and overrides.
const MinutesPerDay = 24 * 60

// DateLayout is the calendar date format of overrides.
const DateLayout = "2006-01-02"

// Pattern is a recurring weekly window in the scheduling timezone.
type Pattern struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	DayOfWeek   time.Weekday
	StartMinute int
	EndMinute   int
	Available   bool
	CreatedAt   time.Time
}

// NewPattern validates and creates a weekly pattern.
func NewPattern(userID uuid.UUID, day time.Weekday, startMinute, endMinute int, available bool) (Pattern, error) {
	if userID == uuid.Nil {
		return Pattern{}, ErrMissingUser
	}
	if day < time.Sunday || day > time.Saturday {
		return Pattern{}, ErrInvalidWeekday
	}
	if err := validateRange(startMinute, endMinute); err != nil {
		return Pattern{}, err
	}
	return Pattern{
		ID:          uuid.New(),
		UserID:      userID,
		DayOfWeek:   day,
		StartMinute: startMinute,
		EndMinute:   endMinute,
		Available:   available,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Override replaces the weekly pattern for part of a specific date.
type Override struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Date        string
	StartMinute int
	EndMinute   int
	Available   bool
	Reason      string
	CreatedAt   time.Time
}

// NewOverride validates and creates a date override.
func NewOverride(userID uuid.UUID, date string, startMinute, endMinute int, available bool, reason string) (Override, error) {
	if userID == uuid.Nil {
		return Override{}, ErrMissingUser
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return Override{}, ErrInvalidDate
	}
	if err := validateRange(startMinute, endMinute); err != nil {
		return Override{}, err
	}
	return Override{
		ID:          uuid.New(),
		UserID:      userID,
		Date:        date,
		StartMinute: startMinute,
		EndMinute:   endMinute,
		Available:   available,
		Reason:      reason,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Interval is a concrete span of time that is either available or
// explicitly unavailable. Time outside every interval is unavailable.
type Interval struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

func validateRange(start, end int) error {
	if start < 0 || end > MinutesPerDay || start >= end {
		return ErrInvalidRange
	}
	return nil
}
