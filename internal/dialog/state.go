// Package dialog implements the weather-route dialogue: a finite state
// machine that collects a travel route through guided prompts, plus the
// in-memory session store that owns one dialogue per chat session.
//
// The machine itself is a pure function over (state, event); it never talks
// to a chat platform or a weather provider. Transitions emit Effects that
// the gateway executes before the new state is committed.
package dialog

import "strings"

// State is a dialogue position. Idle doubles as the terminal state: entering
// Done resets the session to Idle with all fields cleared.
type State int

const (
	StateIdle State = iota
	StateAwaitStartCity
	StateAwaitEndCity
	StateAwaitAddMoreCities
	StateAwaitIntermediateCity
	StateAwaitForecastDays
	StateAwaitWantsGraph
	StateAwaitGraphCity
	StateAwaitGraphMetric
)

// String returns the state name for logs and the dashboard.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitStartCity:
		return "await_start_city"
	case StateAwaitEndCity:
		return "await_end_city"
	case StateAwaitAddMoreCities:
		return "await_add_more_cities"
	case StateAwaitIntermediateCity:
		return "await_intermediate_city"
	case StateAwaitForecastDays:
		return "await_forecast_days"
	case StateAwaitWantsGraph:
		return "await_wants_graph"
	case StateAwaitGraphCity:
		return "await_graph_city"
	case StateAwaitGraphMetric:
		return "await_graph_metric"
	default:
		return "unknown"
	}
}

// EventKind classifies an inbound event.
type EventKind int

const (
	// EventStart begins the weather flow (the /weather command).
	EventStart EventKind = iota
	// EventText is a free-text message.
	EventText
	// EventChoice is a button click carrying a token.
	EventChoice
)

// Event is one inbound occurrence for a session.
type Event struct {
	Kind  EventKind
	Text  string // free text, for EventText
	Token string // choice token, for EventChoice
}

// Choice tokens. City selections are prefixed so the chosen city rides in
// the token itself.
const (
	TokenAddCity  = "add_city"
	TokenNoCity   = "no_city"
	TokenDays1    = "days_1"
	TokenDays5    = "days_5"
	TokenGraphYes = "graph_yes"
	TokenGraphNo  = "graph_no"

	TokenMetricTemperature   = "metric_temperature"
	TokenMetricWind          = "metric_wind"
	TokenMetricPrecipitation = "metric_precipitation"

	cityTokenPrefix = "city_"
)

// CityToken builds the choice token for selecting a city.
func CityToken(city string) string {
	return cityTokenPrefix + city
}

// cityFromToken extracts the city from a city selection token. ok is false
// when the token is not a city token.
func cityFromToken(token string) (string, bool) {
	if !strings.HasPrefix(token, cityTokenPrefix) {
		return "", false
	}
	city := token[len(cityTokenPrefix):]
	return city, city != ""
}
