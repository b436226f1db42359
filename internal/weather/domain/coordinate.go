package domain

import (
	"fmt"
	"math"
)

// coordinatePrecision is the rounding applied to cache keys and equality
// (4 decimal places, roughly 11 m).
const coordinatePrecision = 1e4

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewCoordinate creates a validated coordinate.
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	c := Coordinate{Lat: lat, Lon: lon}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// Validate rejects out-of-range or non-finite values.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return ErrInvalidCoordinate
	}
	if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: %.4f,%.4f", ErrInvalidCoordinate, c.Lat, c.Lon)
	}
	return nil
}

// Rounded returns the coordinate rounded to cache key granularity.
func (c Coordinate) Rounded() Coordinate {
	return Coordinate{
		Lat: math.Round(c.Lat*coordinatePrecision) / coordinatePrecision,
		Lon: math.Round(c.Lon*coordinatePrecision) / coordinatePrecision,
	}
}

// Key is the cache key for the coordinate.
func (c Coordinate) Key() string {
	r := c.Rounded()
	return fmt.Sprintf("%.4f,%.4f", r.Lat, r.Lon)
}

// Equal compares rounded values.
func (c Coordinate) Equal(other Coordinate) bool {
	return c.Rounded() == other.Rounded()
}

func (c Coordinate) String() string {
	return c.Key()
}

// Route is a straight-line flight between two coordinates.
type Route struct {
	Departure Coordinate `json:"departure"`
	Arrival   Coordinate `json:"arrival"`
}

// Validate checks both endpoints.
func (r Route) Validate() error {
	if err := r.Departure.Validate(); err != nil {
		return fmt.Errorf("departure: %w", err)
	}
	if err := r.Arrival.Validate(); err != nil {
		return fmt.Errorf("arrival: %w", err)
	}
	return nil
}

// Heading returns the initial great-circle bearing from departure to
// arrival in degrees [0, 360). A zero-length route has heading 0.
func (r Route) Heading() float64 {
	if r.Departure.Equal(r.Arrival) {
		return 0
	}
	lat1 := toRadians(r.Departure.Lat)
	lat2 := toRadians(r.Arrival.Lat)
	dLon := toRadians(r.Arrival.Lon - r.Departure.Lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	bearing := toDegrees(math.Atan2(y, x))
	return math.Mod(bearing+360, 360)
}

// Corridor returns samples evenly spaced points along the route by linear
// interpolation, starting at the departure and ending at the arrival.
// Fewer than two samples are treated as two. Identical endpoints collapse
// to a single point.
func Corridor(route Route, samples int) []Coordinate {
	if route.Departure.Equal(route.Arrival) {
		return []Coordinate{route.Departure}
	}
	if samples < 2 {
		samples = 2
	}

	points := make([]Coordinate, samples)
	last := float64(samples - 1)
	for i := 0; i < samples; i++ {
		f := float64(i) / last
		points[i] = Coordinate{
			Lat: route.Departure.Lat + (route.Arrival.Lat-route.Departure.Lat)*f,
			Lon: route.Departure.Lon + (route.Arrival.Lon-route.Departure.Lon)*f,
		}
	}
	// Pin the endpoints exactly.
	points[0] = route.Departure
	points[samples-1] = route.Arrival
	return points
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }
func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }
