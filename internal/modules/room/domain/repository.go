package domain

import "context"

// RoomRepository persists room snapshots by code. Get returns (nil, nil)
// when no room with the code exists. Implementations must make the whole
// snapshot visible atomically; the caller guarantees Save happens before an
// action result is reported (write-through).
type RoomRepository interface {
	Get(ctx context.Context, code string) (*Room, error)
	Save(ctx context.Context, room *Room) error
	Delete(ctx context.Context, code string) error
}
