// Package environment derives location-dependent signals from plot
// coordinates using closed-form estimates. No external data sources are
// consulted, so two calls with the same coordinates produce the same profile
// apart from the collection timestamp.
package environment

import (
	"errors"
	"fmt"
	"math"
	"time"

	"planforge/internal/domain"
)

// ErrDerivation wraps any internal fault raised while deriving a profile.
var ErrDerivation = errors.New("environmental profile derivation failed")

// Service derives environmental profiles. Now is injectable for tests.
type Service struct {
	Now func() time.Time
}

func New() Service {
	return Service{Now: time.Now}
}

func (s Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Profile derives the full environmental bundle for (lat, lon). The formulas
// are total over finite inputs; the recover boundary exists so that an
// unexpected fault surfaces as ErrDerivation instead of crashing a worker.
func (s Service) Profile(lat, lon float64) (profile domain.EnvironmentalProfile, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrDerivation, r)
		}
	}()
	profile = domain.EnvironmentalProfile{
		Geolocation: domain.Geolocation{
			Lat:      lat,
			Lon:      lon,
			Timezone: timezoneFromLongitude(lon),
		},
		ElevationM:  estimateElevation(lat, lon),
		Weather:     weatherSummary(lat),
		Solar:       solarProfile(lat),
		Wind:        windProfile(lat),
		RainfallMM:  rainfallEstimate(lat),
		CollectedAt: s.now().UTC(),
	}
	return profile, nil
}

func timezoneFromLongitude(lon float64) string {
	offset := int(math.Round(lon / 15))
	return fmt.Sprintf("UTC%+d:00", offset)
}

func estimateElevation(lat, lon float64) float64 {
	return round2(math.Mod(math.Abs(lat*12.5+lon*1.1), 900) + 30)
}

func weatherSummary(lat float64) domain.WeatherSummary {
	abs := math.Abs(lat)
	seasonal := []float64{28.0 - abs*0.1, 24.0 - abs*0.08, 20.0, 26.0}
	var sum float64
	for _, t := range seasonal {
		sum += t
	}
	return domain.WeatherSummary{
		AverageTempC: round2(sum / float64(len(seasonal))),
		HumidityPct:  round2(60 + math.Mod(abs, 20)),
	}
}

func solarProfile(lat float64) domain.SolarProfile {
	exposure := "south"
	if lat < 0 {
		exposure = "north"
	}
	return domain.SolarProfile{
		PreferredExposure: exposure,
		AnnualSolarIndex:  round2(6.5 - math.Abs(lat)*0.01),
	}
}

func windProfile(lat float64) domain.WindProfile {
	direction := "SW"
	if lat < 0 {
		direction = "NW"
	}
	return domain.WindProfile{
		PrevailingDirection: direction,
		AvgSpeedMps:         round2(3.5 + math.Mod(math.Abs(lat), 4)),
	}
}

func rainfallEstimate(lat float64) float64 {
	return round2(700 + math.Abs(lat)*15)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
