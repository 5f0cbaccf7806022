// Package domain holds the room aggregate: rooms, players, bets and wagers.
// The Room is the single owner of all mutable game state; every other
// component acts through it.
package domain

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RoomStatus is the lifecycle state of a room
type RoomStatus string

const (
	RoomActive RoomStatus = "active"
	RoomClosed RoomStatus = "closed"
)

// BettingPhase is the round-level phase of a room
type BettingPhase string

const (
	PhaseIdle    BettingPhase = "idle"
	PhaseBetting BettingPhase = "betting"
	PhaseLocked  BettingPhase = "locked"
)

// Room codes exclude characters that are easy to confuse (0/O, 1/I).
const (
	CodeLength   = 6
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// HistoryLimit caps the number of settled rounds kept per room
const HistoryLimit = 50

// RoomStats aggregates room-level totals
type RoomStats struct {
	TotalRounds  int64      `json:"total_rounds"`
	TotalWagered int64      `json:"total_wagered"`
	TotalPayout  int64      `json:"total_payout"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
}

// RoundBetSummary is the archived form of one settled bet
type RoundBetSummary struct {
	ID                string     `json:"id"`
	StageID           int        `json:"stage_id"`
	StageName         string     `json:"stage_name"`
	Title             string     `json:"title"`
	Options           []*Option  `json:"options"`
	WinningOptionID   int        `json:"winning_option_id"`
	WinningOptionName string     `json:"winning_option_name"`
	TotalWagered      int64      `json:"total_wagered"`
	TotalPayout       int64      `json:"total_payout"`
	SettledAt         *time.Time `json:"settled_at"`
}

// SettledRound is one fully settled round in the room history
type SettledRound struct {
	RoundNumber int               `json:"round_number"`
	Bets        []RoundBetSummary `json:"bets"`
	CreatedAt   time.Time         `json:"created_at"`
	SettledAt   time.Time         `json:"settled_at"`
}

// Room is an isolated game session owned by one dealer. A round is the set
// of bets in CurrentBets; the round counter advances only when a new set is
// created, never on settlement.
type Room struct {
	mu sync.Mutex

	ID           string          `json:"id"`
	Code         string          `json:"code"`
	DealerID     string          `json:"dealer_id"`
	DealerName   string          `json:"dealer_name"`
	Status       RoomStatus      `json:"status"`
	BettingPhase BettingPhase    `json:"betting_phase"`
	CurrentRound int             `json:"current_round"`
	Players      []*Player       `json:"players"`
	CurrentBets  []*Bet          `json:"current_bets"`
	History      []*SettledRound `json:"history"`
	Stats        RoomStats       `json:"stats"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewRoom creates an active, idle room with the given code
func NewRoom(code, dealerID, dealerName string) *Room {
	now := time.Now()
	return &Room{
		ID:           uuid.New().String(),
		Code:         code,
		DealerID:     dealerID,
		DealerName:   dealerName,
		Status:       RoomActive,
		BettingPhase: PhaseIdle,
		Players:      make([]*Player, 0),
		CurrentBets:  make([]*Bet, 0),
		History:      make([]*SettledRound, 0),
		Stats:        RoomStats{StartTime: now},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Lock serializes mutations of this room. Handlers lock for the whole
// read-mutate-persist cycle so no interleaving is observable.
func (r *Room) Lock() { r.mu.Lock() }

// Unlock releases the room
func (r *Room) Unlock() { r.mu.Unlock() }

// GenerateRoomCode returns a random 6-char code. Uniqueness is the caller's
// job (retry against cache and store).
func GenerateRoomCode() string {
	b := make([]byte, CodeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// PlayerByID returns the player with the given id, or nil
func (r *Room) PlayerByID(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerByName returns the non-left player with the given name, or nil
func (r *Room) PlayerByName(name string) *Player {
	for _, p := range r.Players {
		if p.Name == name && p.Status != PlayerLeft {
			return p
		}
	}
	return nil
}

// ActivePlayers returns all non-left players in join order
func (r *Room) ActivePlayers() []*Player {
	players := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		if p.Status != PlayerLeft {
			players = append(players, p)
		}
	}
	return players
}

// BetByID returns the current bet with the given id, or nil
func (r *Room) BetByID(id string) *Bet {
	for _, b := range r.CurrentBets {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// AllBetsSettled reports whether every bet of the current round is settled
func (r *Room) AllBetsSettled() bool {
	for _, b := range r.CurrentBets {
		if b.Status != BetSettled {
			return false
		}
	}
	return len(r.CurrentBets) > 0
}

// ArchiveRound appends a settled round to the bounded history and resets the
// room to idle with no current bets
func (r *Room) ArchiveRound(round *SettledRound) {
	r.History = append(r.History, round)
	if len(r.History) > HistoryLimit {
		r.History = r.History[len(r.History)-HistoryLimit:]
	}
	r.Stats.TotalRounds++
	r.CurrentBets = make([]*Bet, 0)
	r.BettingPhase = PhaseIdle
}

// Ranking returns all non-left players ordered by points descending. Ties
// keep join order (stable sort). Rates are percentages rounded to one
// decimal.
func (r *Room) Ranking() []RankEntry {
	players := r.ActivePlayers()
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Points > players[j].Points
	})

	ranking := make([]RankEntry, 0, len(players))
	for i, p := range players {
		netProfit := p.Points - p.InitialPoints

		var profitRate float64
		if p.InitialPoints > 0 {
			profitRate = round1(float64(netProfit) / float64(p.InitialPoints) * 100)
		}

		var winRate float64
		if p.Stats.RoundsPlayed > 0 {
			winRate = round1(float64(p.Stats.RoundsWon) / float64(p.Stats.RoundsPlayed) * 100)
		}

		ranking = append(ranking, RankEntry{
			Rank:          i + 1,
			PlayerID:      p.ID,
			PlayerName:    p.Name,
			Points:        p.Points,
			InitialPoints: p.InitialPoints,
			NetProfit:     netProfit,
			ProfitRate:    profitRate,
			RoundsPlayed:  p.Stats.RoundsPlayed,
			WinRate:       winRate,
		})
	}
	return ranking
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
