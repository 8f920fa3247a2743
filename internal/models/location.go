// Package models defines the GORM models Wayfarer persists locally.
// Dialogue sessions are deliberately not persisted — they are ephemeral
// in-memory state that is lost on restart.
package models

import "time"

// CachedLocation maps a free-text city name to the provider's opaque
// location key. Location lookups cost API quota, so resolved keys are
// cached in the local sqlite file.
type CachedLocation struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	City        string `gorm:"size:128;not null;uniqueIndex"`
	LocationKey string `gorm:"size:64;not null"`
	UpdatedAt   time.Time
	CreatedAt   time.Time
}
