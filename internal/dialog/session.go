package dialog

import (
	"time"

	"github.com/zulandar/wayfarer/internal/chart"
	"github.com/zulandar/wayfarer/internal/route"
)

// Session is the full mutable state of one user's in-progress dialogue.
// A session is exclusively owned by its chat session; the store guarantees
// events for the same session are handled one at a time.
type Session struct {
	ID           string
	State        State
	Route        route.Route
	ForecastDays int          // 0 until chosen, then 1 or 5
	WantsGraph   bool         // meaningful only after AwaitWantsGraph
	GraphCity    string       // set after AwaitGraphCity
	GraphMetric  chart.Metric // zero until chosen
	LastActivity time.Time
}

// Reset clears every dialogue field back to its initial unset value so the
// next start event begins clean. The ID survives.
func (s *Session) Reset() {
	id, last := s.ID, s.LastActivity
	*s = Session{ID: id, LastActivity: last}
}
