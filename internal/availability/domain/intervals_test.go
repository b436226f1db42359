package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/preflight/internal/availability/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2026-06-01 is a Monday.
var monday = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func at(day, hour, minute int) time.Time {
	return monday.AddDate(0, 0, day).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func pattern(t *testing.T, user uuid.UUID, day time.Weekday, start, end int, available bool) domain.Pattern {
	t.Helper()
	p, err := domain.NewPattern(user, day, start, end, available)
	require.NoError(t, err)
	return p
}

func override(t *testing.T, user uuid.UUID, date string, start, end int, available bool) domain.Override {
	t.Helper()
	o, err := domain.NewOverride(user, date, start, end, available, "")
	require.NoError(t, err)
	return o
}

func TestComputeIntervals_WeeklyPattern(t *testing.T) {
	user := uuid.New()
	patterns := []domain.Pattern{
		pattern(t, user, time.Monday, 8*60, 18*60, true),
		pattern(t, user, time.Wednesday, 9*60, 12*60, true),
	}

	got := domain.ComputeIntervals(patterns, nil, monday, monday.AddDate(0, 0, 7), time.UTC)

	require.Len(t, got, 2)
	assert.Equal(t, domain.Interval{Start: at(0, 8, 0), End: at(0, 18, 0), Available: true}, got[0])
	assert.Equal(t, domain.Interval{Start: at(2, 9, 0), End: at(2, 12, 0), Available: true}, got[1])
}

func TestComputeIntervals_UnavailablePatternWins(t *testing.T) {
	user := uuid.New()
	patterns := []domain.Pattern{
		pattern(t, user, time.Monday, 8*60, 18*60, true),
		pattern(t, user, time.Monday, 12*60, 13*60, false),
	}

	got := domain.ComputeIntervals(patterns, nil, monday, monday.AddDate(0, 0, 1), time.UTC)

	require.Len(t, got, 3)
	assert.Equal(t, at(0, 12, 0), got[0].End)
	assert.False(t, got[1].Available)
	assert.Equal(t, at(0, 13, 0), got[2].Start)
}

func TestComputeIntervals_OverrideReplacesPattern(t *testing.T) {
	user := uuid.New()
	patterns := []domain.Pattern{pattern(t, user, time.Monday, 8*60, 18*60, true)}
	overrides := []domain.Override{
		override(t, user, "2026-06-01", 10*60, 14*60, false),
		override(t, user, "2026-06-02", 6*60, 7*60, true),
	}

	got := domain.ComputeIntervals(patterns, overrides, monday, monday.AddDate(0, 0, 2), time.UTC)

	require.Len(t, got, 4)
	assert.Equal(t, domain.Interval{Start: at(0, 8, 0), End: at(0, 10, 0), Available: true}, got[0])
	assert.Equal(t, domain.Interval{Start: at(0, 10, 0), End: at(0, 14, 0), Available: false}, got[1])
	assert.Equal(t, domain.Interval{Start: at(0, 14, 0), End: at(0, 18, 0), Available: true}, got[2])
	assert.Equal(t, domain.Interval{Start: at(1, 6, 0), End: at(1, 7, 0), Available: true}, got[3])
}

func TestComputeIntervals_ClipsAndMergesAcrossMidnight(t *testing.T) {
	user := uuid.New()
	patterns := []domain.Pattern{
		pattern(t, user, time.Monday, 20*60, domain.MinutesPerDay, true),
		pattern(t, user, time.Tuesday, 0, 2*60, true),
	}

	got := domain.ComputeIntervals(patterns, nil, at(0, 21, 0), at(1, 1, 0), time.UTC)

	require.Len(t, got, 1)
	assert.Equal(t, domain.Interval{Start: at(0, 21, 0), End: at(1, 1, 0), Available: true}, got[0])
}

func TestComputeIntervals_Timezone(t *testing.T) {
	denver, err := time.LoadLocation("America/Denver")
	require.NoError(t, err)
	user := uuid.New()
	patterns := []domain.Pattern{pattern(t, user, time.Monday, 8*60, 10*60, true)}

	got := domain.ComputeIntervals(patterns, nil, monday, monday.AddDate(0, 0, 2), denver)

	require.Len(t, got, 1)
	// 08:00 MDT is 14:00 UTC.
	assert.True(t, got[0].Start.Equal(at(0, 14, 0)))
}

func TestCovers(t *testing.T) {
	intervals := []domain.Interval{
		{Start: at(0, 8, 0), End: at(0, 10, 0), Available: true},
		{Start: at(0, 10, 0), End: at(0, 12, 0), Available: true},
		{Start: at(0, 12, 0), End: at(0, 13, 0), Available: false},
		{Start: at(0, 13, 0), End: at(0, 18, 0), Available: true},
	}

	assert.True(t, domain.Covers(intervals, at(0, 8, 0), at(0, 12, 0)))
	assert.True(t, domain.Covers(intervals, at(0, 14, 0), at(0, 16, 0)))
	assert.False(t, domain.Covers(intervals, at(0, 11, 0), at(0, 13, 0)))
	assert.False(t, domain.Covers(intervals, at(0, 7, 0), at(0, 9, 0)))
	assert.False(t, domain.Covers(intervals, at(0, 17, 0), at(0, 19, 0)))
	assert.False(t, domain.Covers(intervals, at(0, 9, 0), at(0, 9, 0)))
	assert.False(t, domain.Covers(nil, at(0, 9, 0), at(0, 10, 0)))
}

func TestNewPatternAndOverride_Validation(t *testing.T) {
	user := uuid.New()

	_, err := domain.NewPattern(user, time.Monday, 600, 600, true)
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
	_, err = domain.NewPattern(user, time.Weekday(7), 0, 60, true)
	assert.ErrorIs(t, err, domain.ErrInvalidWeekday)
	_, err = domain.NewPattern(uuid.Nil, time.Monday, 0, 60, true)
	assert.ErrorIs(t, err, domain.ErrMissingUser)

	_, err = domain.NewOverride(user, "06/01/2026", 0, 60, true, "")
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
	_, err = domain.NewOverride(user, "2026-06-01", 0, domain.MinutesPerDay+1, true, "")
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
}
