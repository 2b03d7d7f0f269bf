package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Blob is the single-table layout for persisted collections.
type Blob struct {
	Key       string         `gorm:"type:varchar(255);primaryKey"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (Blob) TableName() string {
	return "blobs"
}

// PostgresStore persists blobs in Postgres via GORM.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) (*PostgresStore, error) {
	if err := db.AutoMigrate(&Blob{}); err != nil {
		return nil, fmt.Errorf("migrate blobs table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var blob Blob
	err := s.db.WithContext(ctx).First(&blob, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load blob %s: %w", key, err)
	}
	return json.RawMessage(blob.Value), true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, blob json.RawMessage) error {
	record := Blob{Key: key, Value: datatypes.JSON(blob)}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("store blob %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Delete(&Blob{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}
