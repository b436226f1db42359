package domain

import (
	"math"
	"time"
)

// CandidateSlot is a proposed replacement start time before any filtering.
type CandidateSlot struct {
	Start          time.Time
	ProximityScore float64
}

// ProximityScore favours slots close to the original time: 100 minus the
// distance in hours, floored at zero.
func ProximityScore(original, candidate time.Time) float64 {
	hours := math.Abs(candidate.Sub(original).Hours())
	return math.Max(0, 100-hours)
}
