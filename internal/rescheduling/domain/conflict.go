package domain

import (
	"time"

	booking "github.com/felixgeelhaar/preflight/internal/booking/domain"
	weather "github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/google/uuid"
)

// Severity grades a conflict by how soon the flight departs.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

const (
	CriticalWindow = 2 * time.Hour
	WarningWindow  = 12 * time.Hour
)

// Classify maps the time left before departure to a severity. Both window
// boundaries are inclusive.
func Classify(timeToDeparture time.Duration) Severity {
	switch {
	case timeToDeparture <= CriticalWindow:
		return SeverityCritical
	case timeToDeparture <= WarningWindow:
		return SeverityWarning
	default:
		return SeverityNone
	}
}

// ConflictResult is the outcome of evaluating one booking.
type ConflictResult struct {
	BookingID       uuid.UUID
	PreviousStatus  booking.Status
	CurrentStatus   booking.Status
	Verdict         weather.Verdict
	Severity        Severity
	ShouldNotify    bool
	Cleared         bool
	TimeToDeparture time.Duration
	EvaluatedAt     time.Time
}

// Changed reports whether the evaluation moved the booking to a new status.
func (r ConflictResult) Changed() bool {
	return r.PreviousStatus != r.CurrentStatus
}

// NeedsReschedule reports whether the booking should get replacement options.
func (r ConflictResult) NeedsReschedule() bool {
	return r.CurrentStatus == booking.StatusAtRisk && r.Severity == SeverityCritical
}

// ShouldNotify decides whether a failing verdict is worth an alert: on the
// first transition into AT_RISK, or on every scan once the flight is close.
func ShouldNotify(verdict weather.Verdict, previous booking.Status, severity Severity) bool {
	if verdict.Valid {
		return false
	}
	return previous == booking.StatusConfirmed || severity == SeverityCritical
}
