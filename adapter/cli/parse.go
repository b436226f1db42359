package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	weather "github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/google/uuid"
)

// ErrNotConnected is returned by commands that need the database.
var ErrNotConnected = errors.New("this command requires a database connection")

// Layouts accepted by ParseTime, most specific first.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseTime parses an RFC 3339 timestamp, or a local "YYYY-MM-DD HH:MM".
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, use RFC 3339 or YYYY-MM-DD HH:MM", s)
}

// ParseCoordinate parses "lat,lon".
func ParseCoordinate(s string) (weather.Coordinate, error) {
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return weather.Coordinate{}, fmt.Errorf("invalid coordinate %q, use lat,lon", s)
	}
	latF, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return weather.Coordinate{}, fmt.Errorf("invalid latitude in %q: %w", s, err)
	}
	lonF, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return weather.Coordinate{}, fmt.Errorf("invalid longitude in %q: %w", s, err)
	}
	return weather.NewCoordinate(latF, lonF)
}

// ParseRoute parses departure and arrival coordinates.
func ParseRoute(departure, arrival string) (weather.Route, error) {
	dep, err := ParseCoordinate(departure)
	if err != nil {
		return weather.Route{}, fmt.Errorf("departure: %w", err)
	}
	arr, err := ParseCoordinate(arrival)
	if err != nil {
		return weather.Route{}, fmt.Errorf("arrival: %w", err)
	}
	return weather.Route{Departure: dep, Arrival: arr}, nil
}

// ParseLevel accepts "private-pilot" as well as "PRIVATE_PILOT".
func ParseLevel(s string) (weather.CertificationLevel, error) {
	return weather.ParseLevel(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
}

// ParseID parses a UUID argument, naming it in the error.
func ParseID(name, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return id, nil
}

// ParseIDs parses a comma-separated list of UUIDs. An empty string yields nil.
func ParseIDs(name, s string) ([]uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var ids []uuid.UUID
	for _, part := range strings.Split(s, ",") {
		id, err := ParseID(name, part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FormatOptional renders an optional reading or "n/a".
func FormatOptional(v *float64, unit string) string {
	if v == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64) + " " + unit
}
