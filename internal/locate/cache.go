package locate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/zulandar/wayfarer/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CachedResolver wraps a Resolver with a sqlite-backed city→key cache.
// Location searches cost provider quota; a route is typically asked about
// repeatedly, so hits skip the network entirely. ErrNotFound results are
// not cached — a later lookup may succeed once the spelling is fixed
// upstream or provider coverage changes.
type CachedResolver struct {
	db   *gorm.DB
	next Resolver
}

// NewCachedResolver creates a caching resolver around next.
func NewCachedResolver(gdb *gorm.DB, next Resolver) (*CachedResolver, error) {
	if gdb == nil {
		return nil, fmt.Errorf("locate: cache: db is required")
	}
	if next == nil {
		return nil, fmt.Errorf("locate: cache: resolver is required")
	}
	return &CachedResolver{db: gdb, next: next}, nil
}

// cacheKey normalizes a city name for cache lookups.
func cacheKey(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// Resolve returns the cached key for city, falling back to the wrapped
// resolver and storing its answer on success.
func (c *CachedResolver) Resolve(ctx context.Context, city string) (string, error) {
	key := cacheKey(city)
	if key == "" {
		return "", ErrNotFound
	}

	var cached models.CachedLocation
	err := c.db.WithContext(ctx).Where("city = ?", key).First(&cached).Error
	if err == nil {
		return cached.LocationKey, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		// Cache trouble degrades to a direct lookup.
		log.Printf("locate: cache read for %q: %v", key, err)
	}

	locationKey, err := c.next.Resolve(ctx, city)
	if err != nil {
		return "", err
	}

	row := models.CachedLocation{City: key, LocationKey: locationKey}
	if err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "city"}},
		DoUpdates: clause.AssignmentColumns([]string{"location_key", "updated_at"}),
	}).Create(&row).Error; err != nil {
		log.Printf("locate: cache write for %q: %v", key, err)
	}

	return locationKey, nil
}
