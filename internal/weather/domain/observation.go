package domain

import (
	"context"
	"slices"
	"time"
)

// ProviderID identifies a weather data source.
type ProviderID string

const (
	ProviderPrimary   ProviderID = "primary"
	ProviderSecondary ProviderID = "secondary"
)

// Canonical condition tags.
const (
	ConditionClear        = "clear"
	ConditionClouds       = "clouds"
	ConditionOvercast     = "overcast"
	ConditionMist         = "mist"
	ConditionHaze         = "haze"
	ConditionSmoke        = "smoke"
	ConditionDust         = "dust"
	ConditionFog          = "fog"
	ConditionDrizzle      = "drizzle"
	ConditionRain         = "rain"
	ConditionFreezingRain = "freezing_rain"
	ConditionSnow         = "snow"
	ConditionIce          = "ice"
	ConditionThunderstorm = "thunderstorm"
	ConditionSquall       = "squall"
	ConditionTornado      = "tornado"
	// ConditionSevere marks violent phenomena regardless of certification level.
	ConditionSevere = "severe"
)

// Conditions lists every canonical condition tag.
func Conditions() []string {
	return []string{
		ConditionClear, ConditionClouds, ConditionOvercast, ConditionMist, ConditionHaze,
		ConditionSmoke, ConditionDust, ConditionFog, ConditionDrizzle, ConditionRain,
		ConditionFreezingRain, ConditionSnow, ConditionIce, ConditionThunderstorm,
		ConditionSquall, ConditionTornado, ConditionSevere,
	}
}

// Observation is a provider-normalized snapshot of current conditions.
// Distances are statute miles, heights feet, speeds knots.
type Observation struct {
	VisibilityMiles  float64    `json:"visibility_miles"`
	CeilingFeet      *float64   `json:"ceiling_feet,omitempty"`
	WindSpeedKnots   float64    `json:"wind_speed_knots"`
	WindDirectionDeg float64    `json:"wind_direction_deg"`
	WindGustKnots    *float64   `json:"wind_gust_knots,omitempty"`
	CrosswindKnots   *float64   `json:"crosswind_knots,omitempty"`
	TemperatureC     float64    `json:"temperature_c"`
	HumidityPct      float64    `json:"humidity_pct"`
	PressureHPa      float64    `json:"pressure_hpa"`
	Conditions       []string   `json:"conditions"`
	Source           ProviderID `json:"source"`
	CapturedAt       time.Time  `json:"captured_at"`
}

// Clone returns a deep copy so callers cannot mutate a shared snapshot.
func (o Observation) Clone() Observation {
	c := o
	c.Conditions = slices.Clone(o.Conditions)
	c.CeilingFeet = clonePtr(o.CeilingFeet)
	c.WindGustKnots = clonePtr(o.WindGustKnots)
	c.CrosswindKnots = clonePtr(o.CrosswindKnots)
	return c
}

// HasCondition reports whether tag is present.
func (o Observation) HasCondition(tag string) bool {
	return slices.Contains(o.Conditions, tag)
}

// Float returns a pointer to v, for optional observation fields.
func Float(v float64) *float64 {
	return &v
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Provider fetches current conditions at a coordinate from one source.
type Provider interface {
	ID() ProviderID
	Current(ctx context.Context, coord Coordinate) (Observation, error)
}
