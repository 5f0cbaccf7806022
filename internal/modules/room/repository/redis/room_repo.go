// Package redis provides a redis-backed RoomRepository storing each room as
// a JSON value under room:<code>.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/frankieli/wager_arena/internal/modules/room/domain"
)

const keyPrefix = "room:"

// RoomRepository implements domain.RoomRepository using redis
type RoomRepository struct {
	rdb *redis.Client
}

// NewRoomRepository creates a new redis room repository
func NewRoomRepository(rdb *redis.Client) *RoomRepository {
	return &RoomRepository{rdb: rdb}
}

// Get loads the room with the given code
func (r *RoomRepository) Get(ctx context.Context, code string) (*domain.Room, error) {
	data, err := r.rdb.Get(ctx, keyPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", code, err)
	}

	var room domain.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("decode room %s snapshot: %w", code, err)
	}
	return &room, nil
}

// Save stores the room snapshot. Rooms have no TTL; closed rooms stay
// readable for history until deleted.
func (r *RoomRepository) Save(ctx context.Context, room *domain.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room %s snapshot: %w", room.Code, err)
	}
	if err := r.rdb.Set(ctx, keyPrefix+room.Code, data, 0).Err(); err != nil {
		return fmt.Errorf("save room %s: %w", room.Code, err)
	}
	return nil
}

// Delete removes the room key
func (r *RoomRepository) Delete(ctx context.Context, code string) error {
	if err := r.rdb.Del(ctx, keyPrefix+code).Err(); err != nil {
		return fmt.Errorf("delete room %s: %w", code, err)
	}
	return nil
}
