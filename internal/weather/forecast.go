// Package weather defines the daily forecast model, the forecast provider
// contract, and the adverse-weather classification policy.
package weather

import "time"

// Valid forecast horizons, in days.
const (
	HorizonOneDay   = 1
	HorizonFiveDays = 5
)

// DailyForecast is one day of a provider forecast, consumed read-only by the
// aggregator and the chart builder. Wind speeds are nil when the provider
// omitted them.
type DailyForecast struct {
	Date        time.Time
	TempMax     float64
	TempMin     float64
	WindDay     *float64 // km/h
	WindNight   *float64 // km/h
	PrecipDay   bool
	PrecipNight bool
	Link        string // per-day detail link from the provider
}

// ValidHorizon reports whether days is a supported forecast horizon.
func ValidHorizon(days int) bool {
	return days == HorizonOneDay || days == HorizonFiveDays
}
