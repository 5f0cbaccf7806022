// Package usecase implements the business logic of the room module: room
// lifecycle, round/bet management, the wager ledger and the settlement
// engine. All state lives on the Room aggregate; every mutating operation
// locks the room, mutates, and writes through to the repository before
// returning.
package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/frankieli/wager_arena/internal/modules/room/domain"
	"github.com/frankieli/wager_arena/pkg/logger"
)

const maxCodeAttempts = 1000

// RoomUseCase manages room lifecycle and the write-through room cache.
// Active rooms live in memory as the source of truth; every mutation is
// persisted before the operation reports success, so cache and store never
// diverge beyond the in-flight event.
type RoomUseCase struct {
	repo          domain.RoomRepository
	initialPoints int64

	mu     sync.RWMutex
	active map[string]*domain.Room
	loads  singleflight.Group
}

// NewRoomUseCase creates a new room use case
func NewRoomUseCase(repo domain.RoomRepository, initialPoints int64) *RoomUseCase {
	return &RoomUseCase{
		repo:          repo,
		initialPoints: initialPoints,
		active:        make(map[string]*domain.Room),
	}
}

// CreateRoom creates an active room with a unique code and binds the dealer
func (uc *RoomUseCase) CreateRoom(ctx context.Context, dealerID, dealerName string) (*domain.Room, error) {
	code, err := uc.uniqueCode(ctx)
	if err != nil {
		return nil, err
	}

	room := domain.NewRoom(code, dealerID, dealerName)
	if err := uc.Save(ctx, room); err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Str("room_code", code).
		Str("dealer_name", dealerName).
		Msg("room created")

	return room, nil
}

// uniqueCode generates a room code unused by both the cache and the store
func (uc *RoomUseCase) uniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := domain.GenerateRoomCode()

		uc.mu.RLock()
		_, cached := uc.active[code]
		uc.mu.RUnlock()
		if cached {
			continue
		}

		existing, err := uc.repo.Get(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check room code: %w", err)
		}
		if existing == nil {
			return code, nil
		}
	}
	// Practically unreachable: 32^6 codes.
	return "", fmt.Errorf("room code space exhausted after %d attempts", maxCodeAttempts)
}

// GetRoom returns the active room with the given code, loading it from the
// repository on cache miss. Returns (nil, nil) when no active room exists.
func (uc *RoomUseCase) GetRoom(ctx context.Context, code string) (*domain.Room, error) {
	uc.mu.RLock()
	room, ok := uc.active[code]
	uc.mu.RUnlock()
	if ok {
		return room, nil
	}

	// Collapse concurrent reload-on-miss for the same code so only one
	// snapshot is materialized.
	v, err, _ := uc.loads.Do(code, func() (interface{}, error) {
		uc.mu.RLock()
		cached, ok := uc.active[code]
		uc.mu.RUnlock()
		if ok {
			return cached, nil
		}

		loaded, err := uc.repo.Get(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("load room: %w", err)
		}
		if loaded == nil || loaded.Status != domain.RoomActive {
			return (*domain.Room)(nil), nil
		}

		uc.mu.Lock()
		uc.active[code] = loaded
		uc.mu.Unlock()

		logger.Info(ctx).Str("room_code", code).Msg("room reloaded from store")
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Room), nil
}

// Save refreshes the room's update time, caches it, and writes through to
// the repository. Must complete before the triggering action returns.
func (uc *RoomUseCase) Save(ctx context.Context, room *domain.Room) error {
	room.UpdatedAt = time.Now()

	uc.mu.Lock()
	if room.Status == domain.RoomActive {
		uc.active[room.Code] = room
	}
	uc.mu.Unlock()

	if err := uc.repo.Save(ctx, room); err != nil {
		return fmt.Errorf("persist room %s: %w", room.Code, err)
	}
	return nil
}

// JoinResult is the outcome of AddPlayer
type JoinResult struct {
	Player    *domain.Player
	Room      *domain.Room
	Reconnect bool
}

// AddPlayer joins a player by display name. An offline player with the same
// name is transparently resumed (reconnect), an online one rejects the name.
func (uc *RoomUseCase) AddPlayer(ctx context.Context, code, name string) (*JoinResult, error) {
	room, err := uc.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, domain.ErrRoomNotFound
	}

	room.Lock()
	defer room.Unlock()

	if room.Status != domain.RoomActive {
		return nil, domain.ErrRoomClosed
	}

	if existing := room.PlayerByName(name); existing != nil {
		if existing.Status == domain.PlayerOffline {
			existing.Status = domain.PlayerOnline
			existing.Touch()
			if err := uc.Save(ctx, room); err != nil {
				return nil, err
			}
			logger.Info(ctx).
				Str("room_code", code).
				Str("player_name", name).
				Msg("player resumed by name")
			return &JoinResult{Player: existing, Room: room, Reconnect: true}, nil
		}
		return nil, domain.ErrNameTaken
	}

	player := domain.NewPlayer(name, uc.initialPoints)
	room.Players = append(room.Players, player)
	if err := uc.Save(ctx, room); err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Str("room_code", code).
		Str("player_id", player.ID).
		Str("player_name", name).
		Msg("player joined")

	return &JoinResult{Player: player, Room: room, Reconnect: false}, nil
}

// SetPresence flips a player's online/offline status. It is idempotent and a
// no-op when the player is absent.
func (uc *RoomUseCase) SetPresence(ctx context.Context, code, playerID string, status domain.PlayerStatus) (*domain.Player, error) {
	room, err := uc.GetRoom(ctx, code)
	if err != nil || room == nil {
		return nil, err
	}

	room.Lock()
	defer room.Unlock()

	player := room.PlayerByID(playerID)
	if player == nil {
		return nil, nil
	}

	player.Status = status
	player.Touch()
	if err := uc.Save(ctx, room); err != nil {
		return nil, err
	}
	return player, nil
}

// RemovePlayer soft-deletes a player (status left). Wager history is kept.
func (uc *RoomUseCase) RemovePlayer(ctx context.Context, code, playerID string) (*domain.Player, error) {
	room, err := uc.GetRoom(ctx, code)
	if err != nil || room == nil {
		return nil, err
	}

	room.Lock()
	defer room.Unlock()

	player := room.PlayerByID(playerID)
	if player == nil {
		return nil, nil
	}

	player.Status = domain.PlayerLeft
	if err := uc.Save(ctx, room); err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Str("room_code", code).
		Str("player_id", playerID).
		Msg("player left")

	return player, nil
}

// CloseRoom terminally closes a room and evicts it from the active cache
func (uc *RoomUseCase) CloseRoom(ctx context.Context, code string) (*domain.Room, error) {
	room, err := uc.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, domain.ErrRoomNotFound
	}

	room.Lock()
	defer room.Unlock()

	now := time.Now()
	room.Status = domain.RoomClosed
	room.Stats.EndTime = &now
	if err := uc.Save(ctx, room); err != nil {
		return nil, err
	}

	uc.mu.Lock()
	delete(uc.active, code)
	uc.mu.Unlock()

	logger.Info(ctx).Str("room_code", code).Msg("room closed")
	return room, nil
}

// Ranking returns the room leaderboard
func (uc *RoomUseCase) Ranking(room *domain.Room) []domain.RankEntry {
	room.Lock()
	defer room.Unlock()
	return room.Ranking()
}

// PlayerPublic is the broadcast-safe view of a player
type PlayerPublic struct {
	ID     string              `json:"id"`
	Name   string              `json:"name"`
	Points int64               `json:"points"`
	Status domain.PlayerStatus `json:"status"`
	Stats  domain.PlayerStats  `json:"stats"`
}

// RoomState is the client-sync snapshot of a room
type RoomState struct {
	Code         string                 `json:"code"`
	Status       domain.RoomStatus      `json:"status"`
	BettingPhase domain.BettingPhase    `json:"betting_phase"`
	CurrentRound int                    `json:"current_round"`
	CurrentBets  []*domain.Bet          `json:"current_bets"`
	Players      []PlayerPublic         `json:"players"`
	Ranking      []domain.RankEntry     `json:"ranking"`
	History      []*domain.SettledRound `json:"history"`
	Stats        domain.RoomStats       `json:"stats"`
}

// RoomState builds the snapshot clients resynchronize from. History is
// trimmed to the last five rounds.
func (uc *RoomUseCase) RoomState(room *domain.Room) *RoomState {
	room.Lock()
	defer room.Unlock()

	players := make([]PlayerPublic, 0)
	for _, p := range room.ActivePlayers() {
		players = append(players, PlayerPublic{
			ID:     p.ID,
			Name:   p.Name,
			Points: p.Points,
			Status: p.Status,
			Stats:  p.Stats,
		})
	}

	history := room.History
	if len(history) > 5 {
		history = history[len(history)-5:]
	}

	return &RoomState{
		Code:         room.Code,
		Status:       room.Status,
		BettingPhase: room.BettingPhase,
		CurrentRound: room.CurrentRound,
		CurrentBets:  room.CurrentBets,
		Players:      players,
		Ranking:      room.Ranking(),
		History:      history,
		Stats:        room.Stats,
	}
}
