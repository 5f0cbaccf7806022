package domain

import (
	"math"
	"time"
)

// Wager is one player's stake on one option of one bet. Odds are snapshotted
// at placement and are immune to later changes. Payout and Profit stay nil
// until the bet settles.
type Wager struct {
	ID         string    `json:"id"`
	BetID      string    `json:"bet_id"`
	BetTitle   string    `json:"bet_title"`
	PlayerID   string    `json:"player_id"`
	PlayerName string    `json:"player_name"`
	OptionID   int       `json:"option_id"`
	OptionName string    `json:"option_name"`
	Amount     int64     `json:"amount"`
	Odds       float64   `json:"odds"`
	CreatedAt  time.Time `json:"created_at"`
	Payout     *int64    `json:"payout"`
	Profit     *int64    `json:"profit"`
}

// NewWager records a stake against an option of a bet
func NewWager(bet *Bet, player *Player, option *Option, amount int64) *Wager {
	return &Wager{
		ID:         NewID(),
		BetID:      bet.ID,
		BetTitle:   bet.Title,
		PlayerID:   player.ID,
		PlayerName: player.Name,
		OptionID:   option.ID,
		OptionName: option.Name,
		Amount:     amount,
		Odds:       option.Odds,
		CreatedAt:  time.Now(),
	}
}

// WinPayout computes the payout for a winning wager: floor(amount * odds),
// using the odds snapshot taken at placement. This arithmetic must match the
// client-side expected-payout preview exactly.
func (w *Wager) WinPayout() int64 {
	return int64(math.Floor(float64(w.Amount) * w.Odds))
}
