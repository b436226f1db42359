package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateDeadline(t *testing.T) {
	scheduled := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		notified time.Time
		expected time.Time
	}{
		{
			name:     "notice well ahead uses response window",
			notified: scheduled.Add(-24 * time.Hour),
			expected: scheduled.Add(-12 * time.Hour),
		},
		{
			name:     "late notice uses departure lead time",
			notified: scheduled.Add(-3 * time.Hour),
			expected: scheduled.Add(-30 * time.Minute),
		},
		{
			name:     "windows coincide",
			notified: scheduled.Add(-12*time.Hour - 30*time.Minute),
			expected: scheduled.Add(-30 * time.Minute),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.expected.Equal(CalculateDeadline(scheduled, tt.notified)))
		})
	}
}

func TestDeadlinePassed(t *testing.T) {
	deadline := time.Date(2026, 3, 10, 13, 30, 0, 0, time.UTC)

	assert.False(t, DeadlinePassed(deadline, deadline.Add(-time.Microsecond)))
	assert.False(t, DeadlinePassed(deadline, deadline))
	assert.True(t, DeadlinePassed(deadline, deadline.Add(time.Microsecond)))
}
