package providers

import (
	"math"

	"github.com/felixgeelhaar/preflight/internal/weather/domain"
)

// A layer covering five oktas or more (broken or overcast) forms a ceiling.
const ceilingCoverPct = 62.5

// Convective cloud bases rise about 400 ft per degree Celsius of
// temperature and dew-point spread.
const feetPerDegreeSpread = 400

// Magnus coefficients for dew point over water.
const (
	magnusB = 17.62
	magnusC = 243.12
)

// estimateCeiling derives a ceiling from cloud cover, temperature and
// relative humidity for providers that report no cloud base. It returns nil
// when the sky is less than broken or the humidity is unusable.
func estimateCeiling(coverPct, tempC, humidityPct float64) *float64 {
	if coverPct < ceilingCoverPct || humidityPct <= 0 {
		return nil
	}
	spread := tempC - dewPoint(tempC, math.Min(humidityPct, 100))
	if spread < 0 {
		spread = 0
	}
	return domain.Float(math.Round(spread * feetPerDegreeSpread))
}

func dewPoint(tempC, humidityPct float64) float64 {
	gamma := math.Log(humidityPct/100) + magnusB*tempC/(magnusC+tempC)
	return magnusC * gamma / (magnusB - gamma)
}
