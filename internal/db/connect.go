// Package db opens and migrates Wayfarer's local sqlite cache database.
package db

import (
	"fmt"

	"github.com/zulandar/wayfarer/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens a GORM connection to the sqlite file at path. Use ":memory:"
// for an ephemeral database in tests.
func Connect(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("db: path is required")
	}
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: open %s: %w", path, err)
	}
	return gdb, nil
}

// Migrate creates or updates the schema for all Wayfarer models.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&models.CachedLocation{},
		&models.ReportDelivery{},
	); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	return nil
}
