package domain

import (
	"fmt"
	"math"
	"slices"
)

// Crosswind returns the reported crosswind, or the component of the wind
// perpendicular to heading.
func Crosswind(obs Observation, heading float64) float64 {
	if obs.CrosswindKnots != nil {
		return *obs.CrosswindKnots
	}
	angle := toRadians(obs.WindDirectionDeg - heading)
	return math.Abs(obs.WindSpeedKnots * math.Sin(angle))
}

// CheckObservation compares one observation against minimums and returns
// the violations in a fixed order: visibility, wind, crosswind, ceiling,
// denied tags, tags outside the allow-list, then the generic severe tag.
// Ceiling is only checked when reported.
func CheckObservation(obs Observation, m Minimums, heading float64) []string {
	var violations []string

	if obs.VisibilityMiles < m.MinVisibilityMiles {
		violations = append(violations, fmt.Sprintf("visibility %.1f mi below minimum %.1f mi",
			obs.VisibilityMiles, m.MinVisibilityMiles))
	}
	if obs.WindSpeedKnots > m.MaxWindKnots {
		violations = append(violations, fmt.Sprintf("wind %.1f kt exceeds maximum %.1f kt",
			obs.WindSpeedKnots, m.MaxWindKnots))
	}
	if m.MaxCrosswindKnots != nil {
		if xw := Crosswind(obs, heading); xw > *m.MaxCrosswindKnots {
			violations = append(violations, fmt.Sprintf("crosswind %.1f kt exceeds maximum %.1f kt",
				xw, *m.MaxCrosswindKnots))
		}
	}
	if m.MinCeilingFeet != nil && obs.CeilingFeet != nil && *obs.CeilingFeet < *m.MinCeilingFeet {
		violations = append(violations, fmt.Sprintf("ceiling %.0f ft below minimum %.0f ft",
			*obs.CeilingFeet, *m.MinCeilingFeet))
	}

	for _, tag := range obs.Conditions {
		if tag == ConditionSevere {
			continue
		}
		if slices.Contains(m.DeniedConditions, tag) {
			violations = append(violations, fmt.Sprintf("condition %q not permitted", tag))
		}
	}
	if len(m.AllowedConditions) > 0 {
		for _, tag := range obs.Conditions {
			if tag == ConditionSevere || slices.Contains(m.DeniedConditions, tag) {
				continue
			}
			if !slices.Contains(m.AllowedConditions, tag) {
				violations = append(violations, fmt.Sprintf("condition %q outside allowed conditions", tag))
			}
		}
	}
	if obs.HasCondition(ConditionSevere) {
		violations = append(violations, "severe weather reported")
	}

	return violations
}
