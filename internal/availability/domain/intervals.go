package domain

import (
	"sort"
	"time"
)

// span is a half-open minute-of-day range.
type span struct{ start, end int }

// spanSet is a sorted list of disjoint, non-adjacent spans.
type spanSet []span

func (s spanSet) add(n span) spanSet {
	out := append(spanSet{}, s...)
	out = append(out, n)
	sort.Slice(out, func(i, j int) bool { return out[i].start < out[j].start })

	merged := out[:0]
	for _, sp := range out {
		if len(merged) > 0 && sp.start <= merged[len(merged)-1].end {
			if sp.end > merged[len(merged)-1].end {
				merged[len(merged)-1].end = sp.end
			}
			continue
		}
		merged = append(merged, sp)
	}
	return merged
}

func (s spanSet) subtract(cut span) spanSet {
	var out spanSet
	for _, sp := range s {
		if cut.end <= sp.start || cut.start >= sp.end {
			out = append(out, sp)
			continue
		}
		if sp.start < cut.start {
			out = append(out, span{sp.start, cut.start})
		}
		if cut.end < sp.end {
			out = append(out, span{cut.end, sp.end})
		}
	}
	return out
}

// daySchedule resolves one calendar day. Unavailable pattern time wins
// over available pattern time; overrides replace whatever they overlap.
func daySchedule(weekday time.Weekday, date string, patterns []Pattern, overrides []Override) (avail, unavail spanSet) {
	for _, p := range patterns {
		if p.DayOfWeek != weekday {
			continue
		}
		sp := span{p.StartMinute, p.EndMinute}
		if p.Available {
			avail = avail.add(sp)
		} else {
			unavail = unavail.add(sp)
		}
	}
	for _, u := range unavail {
		avail = avail.subtract(u)
	}

	for _, o := range overrides {
		if o.Date != date {
			continue
		}
		sp := span{o.StartMinute, o.EndMinute}
		avail = avail.subtract(sp)
		unavail = unavail.subtract(sp)
		if o.Available {
			avail = avail.add(sp)
		} else {
			unavail = unavail.add(sp)
		}
	}
	return avail, unavail
}

// ComputeIntervals expands patterns and overrides into concrete intervals
// overlapping [from, to), clipped to that window and ordered by start.
// Days are evaluated in loc.
func ComputeIntervals(patterns []Pattern, overrides []Override, from, to time.Time, loc *time.Location) []Interval {
	if loc == nil {
		loc = time.UTC
	}
	if !to.After(from) {
		return nil
	}

	var out []Interval
	first := from.In(loc)
	day := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, loc)
	for ; day.Before(to); day = day.AddDate(0, 0, 1) {
		avail, unavail := daySchedule(day.Weekday(), day.Format(DateLayout), patterns, overrides)
		out = appendClipped(out, day, avail, true, from, to)
		out = appendClipped(out, day, unavail, false, from, to)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return mergeAdjacent(out)
}

func appendClipped(out []Interval, day time.Time, spans spanSet, available bool, from, to time.Time) []Interval {
	for _, sp := range spans {
		start := atMinute(day, sp.start)
		end := atMinute(day, sp.end)
		if start.Before(from) {
			start = from
		}
		if end.After(to) {
			end = to
		}
		if end.After(start) {
			out = append(out, Interval{Start: start, End: end, Available: available})
		}
	}
	return out
}

// atMinute resolves a wall-clock minute of day, so DST days keep their
// local boundaries.
func atMinute(day time.Time, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, minute, 0, 0, day.Location())
}

// mergeAdjacent joins touching intervals with the same availability, such
// as a window ending at midnight and the next day's window starting there.
func mergeAdjacent(in []Interval) []Interval {
	var out []Interval
	for _, iv := range in {
		if n := len(out); n > 0 && out[n-1].Available == iv.Available && !iv.Start.After(out[n-1].End) {
			if iv.End.After(out[n-1].End) {
				out[n-1].End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// Covers reports whether [start, end) lies entirely inside available
// intervals and touches no unavailable one.
func Covers(intervals []Interval, start, end time.Time) bool {
	if !end.After(start) {
		return false
	}
	cursor := start
	for _, iv := range intervals {
		if !iv.Available {
			if iv.Start.Before(end) && iv.End.After(start) {
				return false
			}
			continue
		}
		if iv.Start.After(cursor) {
			continue
		}
		if iv.End.After(cursor) {
			cursor = iv.End
		}
	}
	return !cursor.Before(end)
}
