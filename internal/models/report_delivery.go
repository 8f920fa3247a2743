package models

import "time"

// ReportDelivery is an audit row written after a forecast report is
// delivered to a chat session. It records what was sent, not dialogue state.
type ReportDelivery struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	SessionKey string `gorm:"size:192;not null;index"`
	Cities     string `gorm:"size:512;not null"` // comma-joined leg sequence
	Days       int    `gorm:"not null"`
	Chunks     int    `gorm:"not null"`
	CreatedAt  time.Time
}
