package domain

import "time"

const (
	// DeadlineLeadTime is how long before departure preferences close.
	DeadlineLeadTime = 30 * time.Minute
	// ResponseWindow is how long participants have after being notified.
	ResponseWindow = 12 * time.Hour
)

// CalculateDeadline returns the earlier of 30 minutes before departure and
// 12 hours after notification.
func CalculateDeadline(scheduledAt, notifiedAt time.Time) time.Time {
	beforeDeparture := scheduledAt.Add(-DeadlineLeadTime)
	afterNotice := notifiedAt.Add(ResponseWindow)
	if afterNotice.Before(beforeDeparture) {
		return afterNotice.UTC()
	}
	return beforeDeparture.UTC()
}

// DeadlinePassed is true strictly after the deadline.
func DeadlinePassed(deadline, now time.Time) bool {
	return now.After(deadline)
}
