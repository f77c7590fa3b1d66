package database

import (
	"errors"

	"gorm.io/gorm"

	"github.com/farmiq/farmiq/internal/models"
)

// AutoMigrate creates or updates the FarmIQ tables together with the cache table.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}
	if err := AutoMigrateFarm(db); err != nil {
		return err
	}
	return db.AutoMigrate(&models.CacheEntry{})
}

// AutoMigrateFarm creates or updates only the eleven FarmIQ domain tables.
func AutoMigrateFarm(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}
	return db.AutoMigrate(models.FarmModels()...)
}
