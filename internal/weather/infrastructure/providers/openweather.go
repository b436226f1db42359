package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/felixgeelhaar/preflight/internal/weather/domain"
)

const defaultPrimaryURL = "https://api.openweathermap.org/data/2.5"

// OpenWeather omits visibility when it is 10 km or more.
const owmMaxVisibilityMeters = 10000

// OpenWeather is the primary provider, speaking the OpenWeatherMap
// "current weather" API in metric units.
type OpenWeather struct {
	client *httpClient
	now    func() time.Time
}

// NewOpenWeather creates the primary provider adapter.
func NewOpenWeather(cfg ClientConfig) *OpenWeather {
	return &OpenWeather{
		client: newHTTPClient(string(domain.ProviderPrimary), defaultPrimaryURL, cfg),
		now:    time.Now,
	}
}

func (p *OpenWeather) ID() domain.ProviderID { return domain.ProviderPrimary }

// Current fetches conditions at coord.
func (p *OpenWeather) Current(ctx context.Context, coord domain.Coordinate) (domain.Observation, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(coord.Lat, 'f', 4, 64))
	q.Set("lon", strconv.FormatFloat(coord.Lon, 'f', 4, 64))
	q.Set("units", "metric")
	if p.client.apiKey != "" {
		q.Set("appid", p.client.apiKey)
	}

	var payload owmResponse
	if err := p.client.getJSON(ctx, "/weather", q, &payload); err != nil {
		return domain.Observation{}, err
	}
	return payload.normalize(p.now())
}

type owmResponse struct {
	Dt         int64  `json:"dt"`
	Visibility *int   `json:"visibility"`
	Main       *struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
		Pressure float64 `json:"pressure"`
	} `json:"main"`
	Wind *struct {
		Speed *float64 `json:"speed"`
		Deg   float64  `json:"deg"`
		Gust  *float64 `json:"gust"`
	} `json:"wind"`
	Weather []struct {
		ID   int    `json:"id"`
		Main string `json:"main"`
	} `json:"weather"`
	Clouds *struct {
		All float64 `json:"all"`
	} `json:"clouds"`
}

func (r owmResponse) normalize(now time.Time) (domain.Observation, error) {
	if r.Main == nil {
		return domain.Observation{}, fmt.Errorf("%s: %w: missing main block", domain.ProviderPrimary, domain.ErrMalformedPayload)
	}
	if r.Wind == nil || r.Wind.Speed == nil {
		return domain.Observation{}, fmt.Errorf("%s: %w: missing wind speed", domain.ProviderPrimary, domain.ErrMalformedPayload)
	}

	visibilityMeters := owmMaxVisibilityMeters
	if r.Visibility != nil {
		visibilityMeters = *r.Visibility
	}

	obs := domain.Observation{
		VisibilityMiles:  float64(visibilityMeters) / metersPerMile,
		WindSpeedKnots:   *r.Wind.Speed * knotsPerMPS,
		WindDirectionDeg: r.Wind.Deg,
		TemperatureC:     r.Main.Temp,
		HumidityPct:      r.Main.Humidity,
		PressureHPa:      r.Main.Pressure,
		Source:           domain.ProviderPrimary,
		CapturedAt:       now.UTC(),
	}
	if r.Wind.Gust != nil {
		obs.WindGustKnots = domain.Float(*r.Wind.Gust * knotsPerMPS)
	}
	if r.Clouds != nil {
		obs.CeilingFeet = estimateCeiling(r.Clouds.All, r.Main.Temp, r.Main.Humidity)
	}
	if r.Dt > 0 {
		obs.CapturedAt = time.Unix(r.Dt, 0).UTC()
	}

	tags := newTagSet()
	for _, w := range r.Weather {
		tags.add(owmConditionTags(w.ID)...)
	}
	obs.Conditions = tags.list()
	return obs, nil
}

// owmConditionTags maps an OpenWeatherMap condition code to canonical tags.
func owmConditionTags(id int) []string {
	switch {
	case id == 202 || id == 212 || id == 221 || id == 232:
		return []string{domain.ConditionThunderstorm, domain.ConditionSevere}
	case id >= 200 && id < 300:
		return []string{domain.ConditionThunderstorm}
	case id >= 300 && id < 400:
		return []string{domain.ConditionDrizzle}
	case id == 511:
		return []string{domain.ConditionFreezingRain}
	case id == 503 || id == 504:
		return []string{domain.ConditionRain, domain.ConditionSevere}
	case id >= 500 && id < 600:
		return []string{domain.ConditionRain}
	case id >= 611 && id <= 613:
		return []string{domain.ConditionIce}
	case id >= 600 && id < 700:
		return []string{domain.ConditionSnow}
	case id == 701:
		return []string{domain.ConditionMist}
	case id == 711:
		return []string{domain.ConditionSmoke}
	case id == 721:
		return []string{domain.ConditionHaze}
	case id == 731 || id == 751 || id == 761:
		return []string{domain.ConditionDust}
	case id == 741:
		return []string{domain.ConditionFog}
	case id == 762:
		return []string{domain.ConditionDust, domain.ConditionSevere}
	case id == 771:
		return []string{domain.ConditionSquall, domain.ConditionSevere}
	case id == 781:
		return []string{domain.ConditionTornado, domain.ConditionSevere}
	case id == 800:
		return []string{domain.ConditionClear}
	case id >= 801 && id <= 803:
		return []string{domain.ConditionClouds}
	case id == 804:
		return []string{domain.ConditionOvercast}
	default:
		return nil
	}
}
