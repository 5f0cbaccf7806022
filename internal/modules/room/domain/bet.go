package domain

import (
	"fmt"
	"time"
)

// BetStatus is the lifecycle state of a bet. Transitions are unidirectional:
// created -> open -> locked -> settled. CreateRound opens bets immediately;
// BetCreated exists for callers that want a separate pre-open window.
type BetStatus string

const (
	BetCreated BetStatus = "created"
	BetOpen    BetStatus = "open"
	BetLocked  BetStatus = "locked"
	BetSettled BetStatus = "settled"
)

// OptionDef describes one option when building a bet
type OptionDef struct {
	Name string  `json:"name"`
	Odds float64 `json:"odds"`
}

// Option is a named outcome of a bet with fixed odds and running totals
type Option struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Odds        float64 `json:"odds"`
	TotalAmount int64   `json:"total_amount"`
	WagerCount  int     `json:"wager_count"`
}

// Bet is a single wagerable proposition within a round
type Bet struct {
	ID                string     `json:"id"`
	StageID           int        `json:"stage_id"`
	StageName         string     `json:"stage_name"`
	Title             string     `json:"title"`
	FullTitle         string     `json:"full_title"`
	Options           []*Option  `json:"options"`
	Wagers            []*Wager   `json:"wagers"`
	Status            BetStatus  `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	LockedAt          *time.Time `json:"locked_at"`
	SettledAt         *time.Time `json:"settled_at"`
	WinningOptionID   int        `json:"winning_option_id"`
	WinningOptionName string     `json:"winning_option_name"`
	TotalPayout       int64      `json:"total_payout"`
}

// NewBet builds an open bet with options numbered from 1 and zeroed totals
func NewBet(stageID int, stageName, title string, defs []OptionDef) *Bet {
	options := make([]*Option, 0, len(defs))
	for i, def := range defs {
		options = append(options, &Option{
			ID:   i + 1,
			Name: def.Name,
			Odds: def.Odds,
		})
	}

	return &Bet{
		ID:        NewID(),
		StageID:   stageID,
		StageName: stageName,
		Title:     title,
		FullTitle: fmt.Sprintf("%s - %s", stageName, title),
		Options:   options,
		Wagers:    make([]*Wager, 0),
		Status:    BetOpen,
		CreatedAt: time.Now(),
	}
}

// Option returns the option with the given id, or nil
func (b *Bet) Option(id int) *Option {
	for _, o := range b.Options {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// IsOpen reports whether the bet accepts wagers
func (b *Bet) IsOpen() bool {
	return b.Status == BetOpen
}

// Open promotes a created bet to open
func (b *Bet) Open() {
	if b.Status == BetCreated {
		b.Status = BetOpen
	}
}

// Lock transitions an open bet to locked
func (b *Bet) Lock(now time.Time) {
	if b.Status == BetOpen {
		b.Status = BetLocked
		b.LockedAt = &now
	}
}

// Finalize marks the bet settled with the winning option and total payout.
// Once settled the winning option and payouts are immutable.
func (b *Bet) Finalize(winning *Option, totalPayout int64, now time.Time) {
	b.Status = BetSettled
	b.SettledAt = &now
	b.WinningOptionID = winning.ID
	b.WinningOptionName = winning.Name
	b.TotalPayout = totalPayout
}

// RemoveWager deletes the wager with the given id, returning it if found
func (b *Bet) RemoveWager(wagerID string) *Wager {
	for i, w := range b.Wagers {
		if w.ID == wagerID {
			b.Wagers = append(b.Wagers[:i], b.Wagers[i+1:]...)
			return w
		}
	}
	return nil
}

// TotalWagered sums the final option totals
func (b *Bet) TotalWagered() int64 {
	var total int64
	for _, o := range b.Options {
		total += o.TotalAmount
	}
	return total
}
