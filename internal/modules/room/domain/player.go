package domain

import (
	"time"

	"github.com/google/uuid"
)

// PlayerStatus is the presence state of a player
type PlayerStatus string

const (
	PlayerOnline  PlayerStatus = "online"
	PlayerOffline PlayerStatus = "offline"
	PlayerLeft    PlayerStatus = "left"
)

// PlayerStats accumulates per-player results across settled bets
type PlayerStats struct {
	RoundsPlayed int     `json:"rounds_played"`
	RoundsWon    int     `json:"rounds_won"`
	TotalWagered int64   `json:"total_wagered"`
	TotalWon     int64   `json:"total_won"`
	TotalLost    int64   `json:"total_lost"`
	NetProfit    int64   `json:"net_profit"`
	WinRate      float64 `json:"win_rate"`
}

// Player is a participant of a room. Players are never hard-deleted while the
// room is active; leaving or being kicked marks them PlayerLeft so that
// wager history stays intact and reconnects can resume identity.
type Player struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Points        int64        `json:"points"`
	InitialPoints int64        `json:"initial_points"`
	Status        PlayerStatus `json:"status"`
	JoinedAt      time.Time    `json:"joined_at"`
	LastActiveAt  time.Time    `json:"last_active_at"`
	Stats         PlayerStats  `json:"stats"`
}

// NewPlayer creates an online player with the given starting balance
func NewPlayer(name string, initialPoints int64) *Player {
	now := time.Now()
	return &Player{
		ID:            uuid.New().String(),
		Name:          name,
		Points:        initialPoints,
		InitialPoints: initialPoints,
		Status:        PlayerOnline,
		JoinedAt:      now,
		LastActiveAt:  now,
	}
}

// Touch refreshes the player's activity timestamp
func (p *Player) Touch() {
	p.LastActiveAt = time.Now()
}

// RankEntry is one row of the room leaderboard
type RankEntry struct {
	Rank          int     `json:"rank"`
	PlayerID      string  `json:"player_id"`
	PlayerName    string  `json:"player_name"`
	Points        int64   `json:"points"`
	InitialPoints int64   `json:"initial_points"`
	NetProfit     int64   `json:"net_profit"`
	ProfitRate    float64 `json:"profit_rate"` // percent, one decimal
	RoundsPlayed  int     `json:"rounds_played"`
	WinRate       float64 `json:"win_rate"` // percent, one decimal
}
