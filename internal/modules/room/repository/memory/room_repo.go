// Package memory provides an in-memory RoomRepository, used for tests and
// single-node deployments that accept losing rooms on restart.
package memory

import (
	"context"
	"sync"

	"github.com/frankieli/wager_arena/internal/modules/room/domain"
)

// RoomRepository implements domain.RoomRepository using a map
type RoomRepository struct {
	rooms map[string]*domain.Room
	mu    sync.RWMutex
}

// NewRoomRepository creates a new memory room repository
func NewRoomRepository() *RoomRepository {
	return &RoomRepository{
		rooms: make(map[string]*domain.Room),
	}
}

// Get returns the room with the given code, or nil
func (r *RoomRepository) Get(ctx context.Context, code string) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[code], nil
}

// Save stores the room under its code
func (r *RoomRepository) Save(ctx context.Context, room *domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[room.Code] = room
	return nil
}

// Delete removes the room with the given code
func (r *RoomRepository) Delete(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, code)
	return nil
}
