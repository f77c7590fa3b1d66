package models

import (
	"time"

	"gorm.io/datatypes"
)

// CacheEntry is a cached response stored in the database-backed cache tier.
type CacheEntry struct {
	Key       string         `gorm:"primaryKey;size:512"`
	Value     datatypes.JSON `gorm:"not null"`
	StoredAt  time.Time      `gorm:"index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName keeps the table name stable across gorm naming strategies.
func (CacheEntry) TableName() string { return "cache_entries" }
