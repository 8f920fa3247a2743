package dialog

import (
	"strings"

	"github.com/zulandar/wayfarer/internal/chart"
	"github.com/zulandar/wayfarer/internal/route"
)

// EffectKind identifies a side effect a transition requires.
type EffectKind int

const (
	EffectPromptStartCity EffectKind = iota
	EffectPromptEndCity
	EffectPromptAddMore
	EffectPromptIntermediate
	EffectPromptForecastDays
	EffectPromptWantsGraph
	EffectPromptGraphCity
	EffectPromptGraphMetric
	EffectDeliverReport
	EffectDeliverChart
	EffectEndDialogue
)

// Effect is one side effect emitted by a transition. Report and chart
// effects carry copies of the route and preferences because the terminal
// transition resets the session before the effects are visible to callers.
type Effect struct {
	Kind    EffectKind
	Ordinal int          // EffectPromptIntermediate: 1-based city number
	Legs    []string     // EffectPromptGraphCity: cities to offer
	Route   route.Route  // EffectDeliverReport
	Days    int          // EffectDeliverReport, EffectDeliverChart
	City    string       // EffectDeliverChart
	Metric  chart.Metric // EffectDeliverChart
}

// Transition applies one inbound event to a session. It is pure: the input
// session is not mutated, and identical inputs yield identical results.
//
// handled is false when the event does not match the expected shape for the
// current state; such events are ignored without a state change, tolerating
// duplicate or stray clicks.
//
// The report is delivered exactly once per session, at the moment the
// dialogue completes — on both the graph and no-graph branches. Terminal
// transitions return the session already reset.
func Transition(s Session, ev Event) (Session, []Effect, bool) {
	switch s.State {
	case StateIdle:
		if ev.Kind != EventStart {
			return s, nil, false
		}
		s.Reset()
		s.State = StateAwaitStartCity
		return s, []Effect{{Kind: EffectPromptStartCity}}, true

	case StateAwaitStartCity:
		text, ok := eventText(ev)
		if !ok {
			return s, nil, false
		}
		s.Route.StartCity = text
		s.State = StateAwaitEndCity
		return s, []Effect{{Kind: EffectPromptEndCity}}, true

	case StateAwaitEndCity:
		text, ok := eventText(ev)
		if !ok {
			return s, nil, false
		}
		s.Route.EndCity = text
		s.Route.IntermediateCities = nil
		s.State = StateAwaitAddMoreCities
		return s, []Effect{{Kind: EffectPromptAddMore}}, true

	case StateAwaitAddMoreCities:
		switch choiceToken(ev) {
		case TokenAddCity:
			s.State = StateAwaitIntermediateCity
			return s, []Effect{{Kind: EffectPromptIntermediate, Ordinal: s.Route.NextIntermediateOrdinal()}}, true
		case TokenNoCity:
			s.State = StateAwaitForecastDays
			return s, []Effect{{Kind: EffectPromptForecastDays}}, true
		}
		return s, nil, false

	case StateAwaitIntermediateCity:
		text, ok := eventText(ev)
		if !ok {
			return s, nil, false
		}
		s.Route.AddIntermediate(text)
		s.State = StateAwaitAddMoreCities
		return s, []Effect{{Kind: EffectPromptAddMore}}, true

	case StateAwaitForecastDays:
		switch choiceToken(ev) {
		case TokenDays1:
			s.ForecastDays = 1
		case TokenDays5:
			s.ForecastDays = 5
		default:
			return s, nil, false
		}
		s.State = StateAwaitWantsGraph
		return s, []Effect{{Kind: EffectPromptWantsGraph}}, true

	case StateAwaitWantsGraph:
		switch choiceToken(ev) {
		case TokenGraphNo:
			s.WantsGraph = false
			effects := []Effect{
				{Kind: EffectDeliverReport, Route: s.Route, Days: s.ForecastDays},
				{Kind: EffectEndDialogue},
			}
			s.Reset()
			return s, effects, true
		case TokenGraphYes:
			s.WantsGraph = true
			s.State = StateAwaitGraphCity
			return s, []Effect{{Kind: EffectPromptGraphCity, Legs: s.Route.Legs()}}, true
		}
		return s, nil, false

	case StateAwaitGraphCity:
		if ev.Kind != EventChoice {
			return s, nil, false
		}
		city, ok := cityFromToken(ev.Token)
		if !ok || !containsCity(s.Route.Legs(), city) {
			return s, nil, false
		}
		s.GraphCity = city
		s.State = StateAwaitGraphMetric
		return s, []Effect{{Kind: EffectPromptGraphMetric}}, true

	case StateAwaitGraphMetric:
		metric, ok := metricFromToken(choiceToken(ev))
		if !ok {
			return s, nil, false
		}
		s.GraphMetric = metric
		effects := []Effect{
			{Kind: EffectDeliverReport, Route: s.Route, Days: s.ForecastDays},
			{Kind: EffectDeliverChart, City: s.GraphCity, Metric: metric, Days: s.ForecastDays},
			{Kind: EffectEndDialogue},
		}
		s.Reset()
		return s, effects, true
	}

	return s, nil, false
}

// eventText extracts trimmed free text; empty or non-text events are
// malformed for text-collecting states.
func eventText(ev Event) (string, bool) {
	if ev.Kind != EventText {
		return "", false
	}
	text := strings.TrimSpace(ev.Text)
	return text, text != ""
}

// choiceToken returns the token of a choice event, or "" for other kinds.
func choiceToken(ev Event) string {
	if ev.Kind != EventChoice {
		return ""
	}
	return ev.Token
}

// metricFromToken maps a metric token onto the chart metric enum.
func metricFromToken(token string) (chart.Metric, bool) {
	switch token {
	case TokenMetricTemperature:
		return chart.MetricTemperature, true
	case TokenMetricWind:
		return chart.MetricWind, true
	case TokenMetricPrecipitation:
		return chart.MetricPrecipitation, true
	}
	return 0, false
}

// containsCity reports whether city is one of the route legs.
func containsCity(legs []string, city string) bool {
	for _, leg := range legs {
		if leg == city {
			return true
		}
	}
	return false
}
