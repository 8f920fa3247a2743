package weather

import (
	"fmt"
	"strings"
)

// Thresholds the default policy considers adverse.
const (
	coldLimitC   = -10.0
	heatLimitC   = 35.0
	windLimitKmh = 40.0
)

// DefaultPolicy classifies each day of a forecast as good or bad weather,
// one line per day, order-preserving. This is the pluggable adverse-weather
// policy; callers may substitute their own Classifier.
func DefaultPolicy(forecast []DailyForecast) []string {
	lines := make([]string, 0, len(forecast))
	for _, day := range forecast {
		var reasons []string
		if day.TempMin <= coldLimitC {
			reasons = append(reasons, "severe cold")
		}
		if day.TempMax >= heatLimitC {
			reasons = append(reasons, "extreme heat")
		}
		if (day.WindDay != nil && *day.WindDay >= windLimitKmh) ||
			(day.WindNight != nil && *day.WindNight >= windLimitKmh) {
			reasons = append(reasons, "strong wind")
		}
		if day.PrecipDay || day.PrecipNight {
			reasons = append(reasons, "precipitation")
		}

		date := day.Date.Format("2006-01-02")
		if len(reasons) == 0 {
			lines = append(lines, fmt.Sprintf("%s: good conditions", date))
		} else {
			lines = append(lines, fmt.Sprintf("%s: bad weather (%s)", date, strings.Join(reasons, ", ")))
		}
	}
	return lines
}
