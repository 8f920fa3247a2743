// Package locate resolves free-text city names to opaque provider location
// keys.
package locate

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a city name cannot be resolved to a location.
var ErrNotFound = errors.New("locate: city not found")

// Resolver maps a city name to the weather provider's location key.
type Resolver interface {
	Resolve(ctx context.Context, city string) (string, error)
}
