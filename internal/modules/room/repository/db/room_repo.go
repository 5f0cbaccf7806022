// Package db provides a GORM-backed RoomRepository. Each room is stored as
// one row keyed by code with the full aggregate serialized into a JSON
// snapshot column, matching the key-value load/save contract.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frankieli/wager_arena/internal/modules/room/domain"
)

// RoomRecord is the persisted form of a room
type RoomRecord struct {
	Code      string    `gorm:"primaryKey;type:varchar(12)"`
	Status    string    `gorm:"index;type:varchar(16);not null"`
	Snapshot  []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

// TableName overrides the table name
func (RoomRecord) TableName() string {
	return "rooms"
}

// RoomRepository implements domain.RoomRepository using GORM
type RoomRepository struct {
	db *gorm.DB
}

// NewRoomRepository creates the repository and migrates its table
func NewRoomRepository(db *gorm.DB) (*RoomRepository, error) {
	if err := db.AutoMigrate(&RoomRecord{}); err != nil {
		return nil, fmt.Errorf("migrate rooms table: %w", err)
	}
	return &RoomRepository{db: db}, nil
}

// Get loads the room snapshot with the given code
func (r *RoomRepository) Get(ctx context.Context, code string) (*domain.Room, error) {
	var record RoomRecord
	err := r.db.WithContext(ctx).First(&record, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", code, err)
	}

	var room domain.Room
	if err := json.Unmarshal(record.Snapshot, &room); err != nil {
		return nil, fmt.Errorf("decode room %s snapshot: %w", code, err)
	}
	return &room, nil
}

// Save upserts the room snapshot
func (r *RoomRepository) Save(ctx context.Context, room *domain.Room) error {
	snapshot, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room %s snapshot: %w", room.Code, err)
	}

	record := RoomRecord{
		Code:      room.Code,
		Status:    string(room.Status),
		Snapshot:  snapshot,
		UpdatedAt: room.UpdatedAt,
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "snapshot", "updated_at"}),
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("save room %s: %w", room.Code, err)
	}
	return nil
}

// Delete removes the room row
func (r *RoomRepository) Delete(ctx context.Context, code string) error {
	if err := r.db.WithContext(ctx).Delete(&RoomRecord{}, "code = ?", code).Error; err != nil {
		return fmt.Errorf("delete room %s: %w", code, err)
	}
	return nil
}
