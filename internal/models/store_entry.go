package models

import (
	"time"

	"gorm.io/datatypes"
)

// StoreEntry is a single key/value row of the SQL-backed store.
type StoreEntry struct {
	Key       string         `gorm:"primaryKey;size:128" json:"key"`
	Value     datatypes.JSON `gorm:"not null" json:"value"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName pins the table name used by the store.
func (StoreEntry) TableName() string {
	return "portal_store_entries"
}
