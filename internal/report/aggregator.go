package report

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/zulandar/wayfarer/internal/locate"
	"github.com/zulandar/wayfarer/internal/route"
	"github.com/zulandar/wayfarer/internal/weather"
)

// MaxChunkLen is the hard per-message character limit of the chat platforms
// we deliver to.
const MaxChunkLen = 4096

// Aggregator composes the textual weather report for a route: one section
// per leg, resolved and fetched in route order. Per-city failures degrade
// that city's section to a single line and never stop the remaining cities.
type Aggregator struct {
	resolver locate.Resolver
	provider weather.Provider
	classify weather.Classifier
}

// AggregatorOpts configures a report aggregator.
type AggregatorOpts struct {
	Resolver locate.Resolver
	Provider weather.Provider
	// Classify defaults to weather.DefaultPolicy.
	Classify weather.Classifier
}

func NewAggregator(opts AggregatorOpts) (*Aggregator, error) {
	if opts.Resolver == nil {
		return nil, fmt.Errorf("report: resolver is required")
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("report: provider is required")
	}
	classify := opts.Classify
	if classify == nil {
		classify = weather.DefaultPolicy
	}
	return &Aggregator{
		resolver: opts.Resolver,
		provider: opts.Provider,
		classify: classify,
	}, nil
}

// BuildReport assembles the forecast report for every leg of the route and
// returns it pre-split into deliverable chunks.
func (a *Aggregator) BuildReport(ctx context.Context, r route.Route, days int) []string {
	var b strings.Builder
	for _, city := range r.Legs() {
		a.writeCity(ctx, &b, city, days)
	}
	return Chunk(b.String(), MaxChunkLen)
}

func (a *Aggregator) writeCity(ctx context.Context, b *strings.Builder, city string, days int) {
	key, err := a.resolver.Resolve(ctx, city)
	if err != nil {
		log.Printf("report: resolve %q: %v", city, err)
		fmt.Fprintf(b, "could not locate %s\n", city)
		return
	}

	forecast, err := a.provider.Forecast(ctx, key, days)
	if err != nil || len(forecast) == 0 {
		log.Printf("report: forecast %q: %v", city, err)
		fmt.Fprintf(b, "could not fetch forecast for %s\n", city)
		return
	}

	fmt.Fprintf(b, "Weather forecast for %s over %d day(s):\n", city, days)
	for i, line := range a.classify(forecast) {
		if i >= days {
			break
		}
		fmt.Fprintf(b, "- %s\n", line)
	}

	for i, day := range forecast {
		if i >= days {
			break
		}
		fmt.Fprintf(b, "  %s:\n", day.Date.Format("2006-01-02"))
		fmt.Fprintf(b, "    - Temperature: day %s°C, night %s°C\n",
			formatNumber(day.TempMax), formatNumber(day.TempMin))
		fmt.Fprintf(b, "    - Wind: day %s km/h, night %s km/h\n",
			formatOptional(day.WindDay), formatOptional(day.WindNight))
		fmt.Fprintf(b, "    - Precipitation: day %s, night %s\n",
			yesNo(day.PrecipDay), yesNo(day.PrecipNight))
	}

	if link := forecast[0].Link; link != "" {
		fmt.Fprintf(b, "More details: %s\n", link)
	}
}

// formatOptional renders a numeric field the provider may omit.
func formatOptional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return formatNumber(*v)
}

// formatNumber prints a value with at most one decimal place, dropping a
// trailing ".0" so whole numbers read naturally.
func formatNumber(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	return strings.TrimSuffix(s, ".0")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Chunk splits text into pieces of at most maxLen characters. The split is a
// plain character-count slice: boundaries never track lines or sections, and
// concatenating the chunks reproduces the input exactly.
func Chunk(text string, maxLen int) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+maxLen-1)/maxLen)
	for len(runes) > maxLen {
		chunks = append(chunks, string(runes[:maxLen]))
		runes = runes[maxLen:]
	}
	return append(chunks, string(runes))
}
