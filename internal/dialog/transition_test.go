package dialog

import (
	"reflect"
	"testing"

	"github.com/zulandar/wayfarer/internal/chart"
)

func textEvent(text string) Event   { return Event{Kind: EventText, Text: text} }
func choiceEvent(token string) Event { return Event{Kind: EventChoice, Token: token} }

// step applies an event that must be handled and returns the new session.
func step(t *testing.T, s Session, ev Event) (Session, []Effect) {
	t.Helper()
	next, effects, ok := Transition(s, ev)
	if !ok {
		t.Fatalf("event %+v unexpectedly ignored in state %v", ev, s.State)
	}
	return next, effects
}

// effectKinds extracts the ordered effect kinds.
func effectKinds(effects []Effect) []EffectKind {
	kinds := make([]EffectKind, len(effects))
	for i, e := range effects {
		kinds[i] = e.Kind
	}
	return kinds
}

// runToWantsGraph drives a fresh session through route collection.
func runToWantsGraph(t *testing.T, intermediates []string, daysToken string) Session {
	t.Helper()
	s := Session{ID: "chat-1"}
	s, _ = step(t, s, Event{Kind: EventStart})
	s, _ = step(t, s, textEvent("Moscow"))
	s, _ = step(t, s, textEvent("Paris"))
	for _, city := range intermediates {
		s, _ = step(t, s, choiceEvent(TokenAddCity))
		s, _ = step(t, s, textEvent(city))
	}
	s, _ = step(t, s, choiceEvent(TokenNoCity))
	s, _ = step(t, s, choiceEvent(daysToken))
	return s
}

func TestTransition_HappyPathNoGraph(t *testing.T) {
	s := Session{ID: "chat-1"}

	s, effects := step(t, s, Event{Kind: EventStart})
	if s.State != StateAwaitStartCity {
		t.Fatalf("state = %v, want AwaitStartCity", s.State)
	}
	if !reflect.DeepEqual(effectKinds(effects), []EffectKind{EffectPromptStartCity}) {
		t.Errorf("effects = %v", effectKinds(effects))
	}

	s, effects = step(t, s, textEvent("Moscow"))
	if s.Route.StartCity != "Moscow" || s.State != StateAwaitEndCity {
		t.Fatalf("after start city: %+v", s)
	}
	if effects[0].Kind != EffectPromptEndCity {
		t.Errorf("effect = %v", effects[0].Kind)
	}

	s, _ = step(t, s, textEvent("Paris"))
	if s.Route.EndCity != "Paris" || s.State != StateAwaitAddMoreCities {
		t.Fatalf("after end city: %+v", s)
	}
	if s.Route.IntermediateCities != nil && len(s.Route.IntermediateCities) != 0 {
		t.Errorf("intermediates = %v, want empty", s.Route.IntermediateCities)
	}

	s, _ = step(t, s, choiceEvent(TokenNoCity))
	if s.State != StateAwaitForecastDays {
		t.Fatalf("state = %v, want AwaitForecastDays", s.State)
	}

	s, _ = step(t, s, choiceEvent(TokenDays1))
	if s.ForecastDays != 1 || s.State != StateAwaitWantsGraph {
		t.Fatalf("after days: %+v", s)
	}

	s, effects = step(t, s, choiceEvent(TokenGraphNo))
	want := []EffectKind{EffectDeliverReport, EffectEndDialogue}
	if !reflect.DeepEqual(effectKinds(effects), want) {
		t.Errorf("terminal effects = %v, want %v", effectKinds(effects), want)
	}
	if effects[0].Days != 1 {
		t.Errorf("report days = %d, want 1", effects[0].Days)
	}
	if got := effects[0].Route.Legs(); !reflect.DeepEqual(got, []string{"Moscow", "Paris"}) {
		t.Errorf("report legs = %v", got)
	}

	// Terminal transition resets every dialogue field.
	if s.State != StateIdle || s.Route.StartCity != "" || s.Route.EndCity != "" ||
		s.ForecastDays != 0 || s.WantsGraph || s.GraphCity != "" || s.GraphMetric != 0 {
		t.Errorf("session not reset: %+v", s)
	}
	if s.ID != "chat-1" {
		t.Errorf("reset must keep the session id, got %q", s.ID)
	}
}

func TestTransition_IntermediateCitiesLoop(t *testing.T) {
	s := Session{ID: "chat-1"}
	s, _ = step(t, s, Event{Kind: EventStart})
	s, _ = step(t, s, textEvent("Moscow"))
	s, _ = step(t, s, textEvent("Paris"))

	s, effects := step(t, s, choiceEvent(TokenAddCity))
	if s.State != StateAwaitIntermediateCity {
		t.Fatalf("state = %v", s.State)
	}
	if effects[0].Kind != EffectPromptIntermediate || effects[0].Ordinal != 1 {
		t.Errorf("prompt = %+v, want intermediate #1", effects[0])
	}

	s, _ = step(t, s, textEvent("Berlin"))
	if s.State != StateAwaitAddMoreCities {
		t.Fatalf("state = %v, want back to AwaitAddMoreCities", s.State)
	}
	if !reflect.DeepEqual(s.Route.Legs(), []string{"Moscow", "Berlin", "Paris"}) {
		t.Errorf("legs = %v", s.Route.Legs())
	}

	// The second prompt is numbered 2.
	s, effects = step(t, s, choiceEvent(TokenAddCity))
	if effects[0].Ordinal != 2 {
		t.Errorf("ordinal = %d, want 2", effects[0].Ordinal)
	}
	s, _ = step(t, s, textEvent("Warsaw"))
	if !reflect.DeepEqual(s.Route.Legs(), []string{"Moscow", "Berlin", "Warsaw", "Paris"}) {
		t.Errorf("legs = %v", s.Route.Legs())
	}
}

func TestTransition_GraphBranch(t *testing.T) {
	s := runToWantsGraph(t, []string{"Berlin"}, TokenDays5)

	s, effects := step(t, s, choiceEvent(TokenGraphYes))
	if s.State != StateAwaitGraphCity || !s.WantsGraph {
		t.Fatalf("after graph_yes: %+v", s)
	}
	if effects[0].Kind != EffectPromptGraphCity {
		t.Fatalf("effect = %v", effects[0].Kind)
	}
	if !reflect.DeepEqual(effects[0].Legs, []string{"Moscow", "Berlin", "Paris"}) {
		t.Errorf("offered legs = %v", effects[0].Legs)
	}

	s, effects = step(t, s, choiceEvent(CityToken("Berlin")))
	if s.GraphCity != "Berlin" || s.State != StateAwaitGraphMetric {
		t.Fatalf("after city choice: %+v", s)
	}
	if effects[0].Kind != EffectPromptGraphMetric {
		t.Errorf("effect = %v", effects[0].Kind)
	}

	s, effects = step(t, s, choiceEvent(TokenMetricTemperature))
	want := []EffectKind{EffectDeliverReport, EffectDeliverChart, EffectEndDialogue}
	if !reflect.DeepEqual(effectKinds(effects), want) {
		t.Fatalf("terminal effects = %v, want %v", effectKinds(effects), want)
	}
	if effects[1].City != "Berlin" || effects[1].Metric != chart.MetricTemperature || effects[1].Days != 5 {
		t.Errorf("chart effect = %+v", effects[1])
	}
	if s.State != StateIdle {
		t.Errorf("state = %v, want Idle after terminal", s.State)
	}
}

func TestTransition_ReportDeliveredOncePerSession(t *testing.T) {
	// Both terminal branches deliver the report exactly once.
	s := runToWantsGraph(t, nil, TokenDays1)
	_, effects, _ := Transition(s, choiceEvent(TokenGraphNo))
	if n := countKind(effects, EffectDeliverReport); n != 1 {
		t.Errorf("graph_no branch delivers %d reports, want 1", n)
	}

	s = runToWantsGraph(t, nil, TokenDays1)
	s, _ = step(t, s, choiceEvent(TokenGraphYes))
	s, _ = step(t, s, choiceEvent(CityToken("Moscow")))
	_, effects, _ = Transition(s, choiceEvent(TokenMetricWind))
	if n := countKind(effects, EffectDeliverReport); n != 1 {
		t.Errorf("metric branch delivers %d reports, want 1", n)
	}
}

func countKind(effects []Effect, kind EffectKind) int {
	n := 0
	for _, e := range effects {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func TestTransition_GraphCityMustBeOnRoute(t *testing.T) {
	s := runToWantsGraph(t, nil, TokenDays1)
	s, _ = step(t, s, choiceEvent(TokenGraphYes))

	next, effects, ok := Transition(s, choiceEvent(CityToken("Tokyo")))
	if ok || effects != nil {
		t.Error("city off the route must be ignored")
	}
	if next.State != StateAwaitGraphCity {
		t.Errorf("state = %v, want unchanged AwaitGraphCity", next.State)
	}
}

func TestTransition_MalformedEventsIgnored(t *testing.T) {
	tests := []struct {
		name  string
		state State
		ev    Event
	}{
		{"text while idle", StateIdle, textEvent("hello")},
		{"click while idle", StateIdle, choiceEvent(TokenDays1)},
		{"click while awaiting text", StateAwaitStartCity, choiceEvent(TokenAddCity)},
		{"empty text", StateAwaitStartCity, textEvent("   ")},
		{"text while awaiting choice", StateAwaitAddMoreCities, textEvent("yes")},
		{"wrong token", StateAwaitAddMoreCities, choiceEvent(TokenDays1)},
		{"stray days token", StateAwaitWantsGraph, choiceEvent(TokenDays5)},
		{"start mid-flow", StateAwaitEndCity, Event{Kind: EventStart}},
		{"bare city prefix", StateAwaitGraphCity, choiceEvent("city_")},
		{"text for metric", StateAwaitGraphMetric, textEvent("temperature")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Session{ID: "chat-1", State: tt.state}
			next, effects, ok := Transition(s, tt.ev)
			if ok {
				t.Fatal("malformed event was handled")
			}
			if effects != nil {
				t.Errorf("effects = %v, want none", effects)
			}
			if next.State != tt.state {
				t.Errorf("state changed %v → %v", tt.state, next.State)
			}
		})
	}
}

func TestTransition_DuplicateClickIgnored(t *testing.T) {
	s := runToWantsGraph(t, nil, TokenDays1)
	// The days token arrives again after the state already moved on.
	_, _, ok := Transition(s, choiceEvent(TokenDays1))
	if ok {
		t.Error("duplicate days click must be ignored in AwaitWantsGraph")
	}
}

func TestTransition_FiveDayChoice(t *testing.T) {
	s := runToWantsGraph(t, nil, TokenDays5)
	if s.ForecastDays != 5 {
		t.Errorf("forecast days = %d, want 5", s.ForecastDays)
	}
}

func TestTransition_RestartAfterDone(t *testing.T) {
	s := runToWantsGraph(t, []string{"Berlin"}, TokenDays1)
	s, _ = step(t, s, choiceEvent(TokenGraphNo))

	// A fresh start begins clean.
	s, _ = step(t, s, Event{Kind: EventStart})
	if s.State != StateAwaitStartCity {
		t.Fatalf("state = %v", s.State)
	}
	if s.Route.StartCity != "" || len(s.Route.IntermediateCities) != 0 || s.ForecastDays != 0 {
		t.Errorf("stale fields after restart: %+v", s)
	}
}

func TestCityToken_RoundTrip(t *testing.T) {
	city, ok := cityFromToken(CityToken("Nizhny Novgorod"))
	if !ok || city != "Nizhny Novgorod" {
		t.Errorf("round trip = %q, %v", city, ok)
	}
	if _, ok := cityFromToken("days_1"); ok {
		t.Error("non-city token must not parse")
	}
}
