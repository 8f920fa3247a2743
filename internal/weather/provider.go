package weather

import "context"

// Provider fetches a multi-day forecast for an opaque location key.
// Implementations may return fewer days than requested; the shortfall is
// partial data, not an error.
type Provider interface {
	Forecast(ctx context.Context, locationKey string, days int) ([]DailyForecast, error)
}

// Classifier turns a forecast list into one human-readable classification
// line per day, order-preserving and same length as the input.
type Classifier func([]DailyForecast) []string
