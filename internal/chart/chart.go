// Package chart builds renderer-agnostic chart specifications from a city's
// multi-day forecast.
package chart

import (
	"errors"
	"fmt"

	"github.com/zulandar/wayfarer/internal/weather"
)

// ErrNoData is returned when the selected city has nothing to plot. Callers
// surface a user-facing message instead of attempting to render.
var ErrNoData = errors.New("chart: no forecast data")

// Metric selects which forecast series a chart plots. The zero value means
// no metric has been chosen yet.
type Metric int

const (
	MetricTemperature Metric = iota + 1
	MetricWind
	MetricPrecipitation
)

// String returns the metric name for prompts and logs.
func (m Metric) String() string {
	switch m {
	case MetricTemperature:
		return "temperature"
	case MetricWind:
		return "wind"
	case MetricPrecipitation:
		return "precipitation"
	default:
		return "unknown"
	}
}

// RenderMode selects how series are drawn.
type RenderMode int

const (
	ModeLine RenderMode = iota
	ModeStackedBar
)

// Point is one plottable value: an ISO date label and a number.
type Point struct {
	X string
	Y float64
}

// Series is a named ordered sequence of points.
type Series struct {
	Name   string
	Points []Point
}

// Spec is a complete chart specification. For ModeStackedBar, TickValues and
// TickLabels remap the numeric axis so rendered ticks read as presence or
// absence rather than numbers.
type Spec struct {
	Title      string
	XLabel     string
	YLabel     string
	Mode       RenderMode
	Series     []Series
	TickValues []float64
	TickLabels []string
}

// Build constructs the chart spec for one city and metric. It is a pure
// function: identical inputs yield identical specs. The forecast is
// truncated to the first days entries; an empty forecast yields ErrNoData.
func Build(city string, days int, metric Metric, forecast []weather.DailyForecast) (*Spec, error) {
	if len(forecast) == 0 {
		return nil, ErrNoData
	}
	if days > 0 && len(forecast) > days {
		forecast = forecast[:days]
	}

	dates := make([]string, len(forecast))
	for i, d := range forecast {
		dates[i] = d.Date.Format("2006-01-02")
	}

	spec := &Spec{
		Title:  fmt.Sprintf("Weather in %s", city),
		XLabel: "Date",
		YLabel: "Value",
	}

	switch metric {
	case MetricTemperature:
		spec.Mode = ModeLine
		spec.Series = []Series{
			{Name: "max temperature", Points: points(dates, forecast, func(d weather.DailyForecast) float64 { return d.TempMax })},
			{Name: "min temperature", Points: points(dates, forecast, func(d weather.DailyForecast) float64 { return d.TempMin })},
		}
	case MetricWind:
		spec.Mode = ModeLine
		spec.Series = []Series{
			{Name: "day wind speed", Points: points(dates, forecast, func(d weather.DailyForecast) float64 { return windValue(d.WindDay) })},
			{Name: "night wind speed", Points: points(dates, forecast, func(d weather.DailyForecast) float64 { return windValue(d.WindNight) })},
		}
	case MetricPrecipitation:
		spec.Mode = ModeStackedBar
		spec.Series = []Series{
			{Name: "day precipitation", Points: points(dates, forecast, func(d weather.DailyForecast) float64 { return boolValue(d.PrecipDay) })},
			{Name: "night precipitation", Points: points(dates, forecast, func(d weather.DailyForecast) float64 { return boolValue(d.PrecipNight) })},
		}
		spec.TickValues = []float64{0, 1}
		spec.TickLabels = []string{"No", "Yes"}
	default:
		return nil, fmt.Errorf("chart: unknown metric %d", metric)
	}

	return spec, nil
}

// points builds one point per day from an extractor.
func points(dates []string, forecast []weather.DailyForecast, value func(weather.DailyForecast) float64) []Point {
	pts := make([]Point, len(forecast))
	for i, d := range forecast {
		pts[i] = Point{X: dates[i], Y: value(d)}
	}
	return pts
}

// windValue plots missing wind measurements as zero.
func windValue(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// boolValue maps precipitation presence to 1, absence to 0.
func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
