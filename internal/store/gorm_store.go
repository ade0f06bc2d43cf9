package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/portal-metrics-api/internal/models"
)

// GormStore persists entries in a SQL table through gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a gorm connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates the backing table.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&models.StoreEntry{})
}

func (s *GormStore) Get(ctx context.Context, key string) (string, bool, error) {
	var entry models.StoreEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load store entry %q: %w", key, err)
	}
	return string(entry.Value), true, nil
}

func (s *GormStore) Set(ctx context.Context, key, value string) error {
	entry := models.StoreEntry{Key: key, Value: datatypes.JSON(value)}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("save store entry %q: %w", key, err)
	}
	return nil
}
