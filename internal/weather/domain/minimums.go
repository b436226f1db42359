package domain

import (
	"fmt"
	"slices"
)

// CertificationLevel is a pilot's certification grade.
type CertificationLevel string

const (
	LevelStudentPilot    CertificationLevel = "STUDENT_PILOT"
	LevelPrivatePilot    CertificationLevel = "PRIVATE_PILOT"
	LevelInstrumentRated CertificationLevel = "INSTRUMENT_RATED"
)

// Levels lists every known certification level.
func Levels() []CertificationLevel {
	return []CertificationLevel{LevelStudentPilot, LevelPrivatePilot, LevelInstrumentRated}
}

// ParseLevel converts a string into a known certification level.
func ParseLevel(s string) (CertificationLevel, error) {
	level := CertificationLevel(s)
	if !slices.Contains(Levels(), level) {
		return "", fmt.Errorf("%w: %q", ErrUnknownLevel, s)
	}
	return level, nil
}

// Minimums are the weather limits for one certification level.
type Minimums struct {
	MinVisibilityMiles float64
	MaxWindKnots       float64
	MaxCrosswindKnots  *float64
	MinCeilingFeet     *float64
	AllowedConditions  []string
	DeniedConditions   []string
}

// MinimumsTable maps every certification level to its minimums.
type MinimumsTable map[CertificationLevel]Minimums

// For looks up the minimums for level.
func (t MinimumsTable) For(level CertificationLevel) (Minimums, error) {
	m, ok := t[level]
	if !ok {
		return Minimums{}, fmt.Errorf("%w: %q", ErrUnknownLevel, level)
	}
	return m, nil
}

// DefaultMinimums returns the built-in table used when no minimums file is
// configured.
func DefaultMinimums() MinimumsTable {
	return MinimumsTable{
		LevelStudentPilot: {
			MinVisibilityMiles: 5,
			MaxWindKnots:       12,
			MaxCrosswindKnots:  Float(8),
			MinCeilingFeet:     Float(3000),
			AllowedConditions:  []string{ConditionClear, ConditionClouds},
			DeniedConditions: []string{
				ConditionThunderstorm, ConditionSnow, ConditionFog,
				ConditionFreezingRain, ConditionIce,
			},
		},
		LevelPrivatePilot: {
			MinVisibilityMiles: 3,
			MaxWindKnots:       20,
			MaxCrosswindKnots:  Float(15),
			MinCeilingFeet:     Float(1000),
			DeniedConditions: []string{
				ConditionThunderstorm, ConditionFreezingRain, ConditionIce,
				ConditionSquall, ConditionTornado,
			},
		},
		LevelInstrumentRated: {
			MinVisibilityMiles: 1,
			MaxWindKnots:       30,
			MaxCrosswindKnots:  Float(25),
			DeniedConditions: []string{
				ConditionThunderstorm, ConditionFreezingRain, ConditionTornado,
			},
		},
	}
}
