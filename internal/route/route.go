// Package route models the ordered multi-leg travel route a dialogue collects.
package route

// Route is the ordered list of cities for one dialogue: a start city, any
// number of intermediate stops, and an end city. Once the end city is set it
// is never altered within a session.
type Route struct {
	StartCity          string
	IntermediateCities []string
	EndCity            string
}

// AddIntermediate appends a stop between start and end, preserving
// insertion order.
func (r *Route) AddIntermediate(city string) {
	r.IntermediateCities = append(r.IntermediateCities, city)
}

// Legs returns the full leg sequence used for forecasting:
// [start, intermediates..., end].
func (r *Route) Legs() []string {
	legs := make([]string, 0, len(r.IntermediateCities)+2)
	legs = append(legs, r.StartCity)
	legs = append(legs, r.IntermediateCities...)
	legs = append(legs, r.EndCity)
	return legs
}

// NextIntermediateOrdinal is the 1-based number to show when prompting for
// the next intermediate city ("Enter intermediate city N:").
func (r *Route) NextIntermediateOrdinal() int {
	return len(r.IntermediateCities) + 1
}
