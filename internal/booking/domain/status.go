package domain

import "fmt"

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusConfirmed    Status = "CONFIRMED"
	StatusAtRisk       Status = "AT_RISK"
	StatusRescheduling Status = "RESCHEDULING"
	StatusRescheduled  Status = "RESCHEDULED"
	StatusCancelled    Status = "CANCELLED"
	StatusCompleted    Status = "COMPLETED"
)

var transitions = map[Status][]Status{
	StatusConfirmed:    {StatusAtRisk, StatusRescheduling, StatusCancelled, StatusCompleted},
	StatusAtRisk:       {StatusConfirmed, StatusRescheduling, StatusCancelled},
	StatusRescheduling: {StatusRescheduled, StatusAtRisk, StatusCancelled},
	StatusRescheduled:  {StatusCancelled, StatusCompleted},
}

// ParseStatus converts a stored status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusConfirmed, StatusAtRisk, StatusRescheduling, StatusRescheduled, StatusCancelled, StatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown booking status %q", s)
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// IsScannable reports whether the conflict scan evaluates bookings in s.
func (s Status) IsScannable() bool {
	return s == StatusConfirmed || s == StatusAtRisk
}

// CanTransitionTo reports whether s may move to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ScannableStatuses lists the statuses picked up by the conflict scan.
func ScannableStatuses() []Status {
	return []Status{StatusConfirmed, StatusAtRisk}
}
