package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/preflight/internal/weather/domain"
)

const defaultSecondaryURL = "https://api.weatherapi.com/v1"

// WeatherAPI is the secondary provider, speaking the WeatherAPI.com
// current.json endpoint.
type WeatherAPI struct {
	client *httpClient
	now    func() time.Time
}

// NewWeatherAPI creates the secondary provider adapter.
func NewWeatherAPI(cfg ClientConfig) *WeatherAPI {
	return &WeatherAPI{
		client: newHTTPClient(string(domain.ProviderSecondary), defaultSecondaryURL, cfg),
		now:    time.Now,
	}
}

func (p *WeatherAPI) ID() domain.ProviderID { return domain.ProviderSecondary }

// Current fetches conditions at coord.
func (p *WeatherAPI) Current(ctx context.Context, coord domain.Coordinate) (domain.Observation, error) {
	q := url.Values{}
	q.Set("q", strconv.FormatFloat(coord.Lat, 'f', 4, 64)+","+strconv.FormatFloat(coord.Lon, 'f', 4, 64))
	if p.client.apiKey != "" {
		q.Set("key", p.client.apiKey)
	}

	var payload weatherAPIResponse
	if err := p.client.getJSON(ctx, "/current.json", q, &payload); err != nil {
		return domain.Observation{}, err
	}
	return payload.normalize(p.now())
}

type weatherAPIResponse struct {
	Current *struct {
		LastUpdatedEpoch int64    `json:"last_updated_epoch"`
		TempC            *float64 `json:"temp_c"`
		WindKph          *float64 `json:"wind_kph"`
		WindDegree       float64  `json:"wind_degree"`
		GustKph          *float64 `json:"gust_kph"`
		PressureMb       float64  `json:"pressure_mb"`
		Humidity         float64  `json:"humidity"`
		VisMiles         *float64 `json:"vis_miles"`
		Cloud            *float64 `json:"cloud"`
		Condition        struct {
			Text string `json:"text"`
			Code int    `json:"code"`
		} `json:"condition"`
	} `json:"current"`
}

// normalize never defaults a missing visibility: this provider always
// reports it, so absence means the payload cannot be trusted.
func (r weatherAPIResponse) normalize(now time.Time) (domain.Observation, error) {
	c := r.Current
	if c == nil {
		return domain.Observation{}, fmt.Errorf("%s: %w: missing current block", domain.ProviderSecondary, domain.ErrMalformedPayload)
	}
	if c.VisMiles == nil {
		return domain.Observation{}, fmt.Errorf("%s: %w: missing visibility", domain.ProviderSecondary, domain.ErrMalformedPayload)
	}
	if c.WindKph == nil {
		return domain.Observation{}, fmt.Errorf("%s: %w: missing wind speed", domain.ProviderSecondary, domain.ErrMalformedPayload)
	}
	if c.TempC == nil {
		return domain.Observation{}, fmt.Errorf("%s: %w: missing temperature", domain.ProviderSecondary, domain.ErrMalformedPayload)
	}

	obs := domain.Observation{
		VisibilityMiles:  *c.VisMiles,
		WindSpeedKnots:   *c.WindKph / kphPerKnot,
		WindDirectionDeg: c.WindDegree,
		TemperatureC:     *c.TempC,
		HumidityPct:      c.Humidity,
		PressureHPa:      c.PressureMb,
		Conditions:       conditionTagsFromText(c.Condition.Text),
		Source:           domain.ProviderSecondary,
		CapturedAt:       now.UTC(),
	}
	if c.GustKph != nil {
		obs.WindGustKnots = domain.Float(*c.GustKph / kphPerKnot)
	}
	if c.Cloud != nil {
		obs.CeilingFeet = estimateCeiling(*c.Cloud, *c.TempC, c.Humidity)
	}
	if c.LastUpdatedEpoch > 0 {
		obs.CapturedAt = time.Unix(c.LastUpdatedEpoch, 0).UTC()
	}
	return obs, nil
}

// conditionTagsFromText maps a free-text condition description to
// canonical tags by keyword.
func conditionTagsFromText(text string) []string {
	t := strings.ToLower(text)
	tags := newTagSet()

	switch {
	case strings.Contains(t, "thunder"):
		tags.add(domain.ConditionThunderstorm)
		if strings.Contains(t, "heavy") {
			tags.add(domain.ConditionSevere)
		}
	case strings.Contains(t, "freezing rain") || strings.Contains(t, "freezing drizzle"):
		tags.add(domain.ConditionFreezingRain)
	case strings.Contains(t, "ice pellets") || strings.Contains(t, "sleet"):
		tags.add(domain.ConditionIce)
	case strings.Contains(t, "blizzard"):
		tags.add(domain.ConditionSnow, domain.ConditionSevere)
	case strings.Contains(t, "snow"):
		tags.add(domain.ConditionSnow)
	case strings.Contains(t, "freezing fog"):
		tags.add(domain.ConditionFog, domain.ConditionIce)
	case strings.Contains(t, "fog"):
		tags.add(domain.ConditionFog)
	case strings.Contains(t, "mist"):
		tags.add(domain.ConditionMist)
	case strings.Contains(t, "drizzle"):
		tags.add(domain.ConditionDrizzle)
	case strings.Contains(t, "torrential"):
		tags.add(domain.ConditionRain, domain.ConditionSevere)
	case strings.Contains(t, "rain") || strings.Contains(t, "shower"):
		tags.add(domain.ConditionRain)
	case strings.Contains(t, "overcast"):
		tags.add(domain.ConditionOvercast)
	case strings.Contains(t, "cloud"):
		tags.add(domain.ConditionClouds)
	case strings.Contains(t, "sunny") || strings.Contains(t, "clear"):
		tags.add(domain.ConditionClear)
	}
	return tags.list()
}
