package usecase

import (
	"context"
	"time"

	"github.com/frankieli/wager_arena/internal/modules/room/domain"
	"github.com/frankieli/wager_arena/pkg/logger"
)

// SettleUseCase computes payouts for a bet given its winning option, updates
// balances and statistics, and archives the round once every bet is settled.
type SettleUseCase struct {
	rooms *RoomUseCase
}

// NewSettleUseCase creates a new settlement use case
func NewSettleUseCase(rooms *RoomUseCase) *SettleUseCase {
	return &SettleUseCase{rooms: rooms}
}

// PlayerResult is one player's outcome for one wager of a settled bet
type PlayerResult struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	BetID      string `json:"bet_id"`
	BetTitle   string `json:"bet_title"`
	OptionID   int    `json:"option_id"`
	OptionName string `json:"option_name"`
	Amount     int64  `json:"amount"`
	Won        bool   `json:"won"`
	Payout     int64  `json:"payout"`
	Profit     int64  `json:"profit"`
	NewPoints  int64  `json:"new_points"`
	NewRank    int    `json:"new_rank"`
}

// Outcome is the result of settling one bet
type Outcome struct {
	Bet         *domain.Bet
	Results     []*PlayerResult
	Ranking     []domain.RankEntry
	RoundNumber int
	AllSettled  bool
}

// Settle declares the winning option of a bet. Winning wagers pay
// floor(amount * odds-at-placement); losing wagers pay zero. A player with
// several wagers on the bet still counts as one played (and at most one won)
// round. When this was the round's last unsettled bet, the round is archived
// and the room returns to idle.
func (uc *SettleUseCase) Settle(ctx context.Context, room *domain.Room, betID string, winningOptionID int) (*Outcome, error) {
	room.Lock()
	defer room.Unlock()

	bet := room.BetByID(betID)
	if bet == nil {
		return nil, domain.ErrBetNotFound
	}
	if bet.Status != domain.BetOpen && bet.Status != domain.BetLocked {
		return nil, domain.NewError(domain.CodeInvalidSettlementState, "bet is %s", bet.Status)
	}
	winning := bet.Option(winningOptionID)
	if winning == nil {
		return nil, domain.ErrInvalidOption
	}

	results := make([]*PlayerResult, 0, len(bet.Wagers))
	wonByPlayer := make(map[string]bool)
	var totalPayout int64

	for _, wager := range bet.Wagers {
		player := room.PlayerByID(wager.PlayerID)
		if player == nil {
			continue
		}

		won := wager.OptionID == winningOptionID
		var payout int64
		if won {
			payout = wager.WinPayout()
			player.Points += payout
			player.Stats.TotalWon += payout
			wonByPlayer[player.ID] = true
		} else {
			player.Stats.TotalLost += wager.Amount
			if _, seen := wonByPlayer[player.ID]; !seen {
				wonByPlayer[player.ID] = false
			}
		}
		profit := payout - wager.Amount

		wager.Payout = &payout
		wager.Profit = &profit
		totalPayout += payout

		player.Stats.TotalWagered += wager.Amount
		player.Stats.NetProfit = player.Points - player.InitialPoints

		results = append(results, &PlayerResult{
			PlayerID:   player.ID,
			PlayerName: player.Name,
			BetID:      bet.ID,
			BetTitle:   bet.Title,
			OptionID:   wager.OptionID,
			OptionName: wager.OptionName,
			Amount:     wager.Amount,
			Won:        won,
			Payout:     payout,
			Profit:     profit,
			NewPoints:  player.Points,
		})
	}

	// One round played per player per bet, won if any wager won.
	for playerID, won := range wonByPlayer {
		player := room.PlayerByID(playerID)
		if player == nil {
			continue
		}
		player.Stats.RoundsPlayed++
		if won {
			player.Stats.RoundsWon++
		}
		player.Stats.WinRate = float64(player.Stats.RoundsWon) / float64(player.Stats.RoundsPlayed)
	}

	room.Stats.TotalPayout += totalPayout

	now := time.Now()
	bet.Finalize(winning, totalPayout, now)

	roundNumber := room.CurrentRound
	allSettled := room.AllBetsSettled()
	if allSettled {
		summaries := make([]domain.RoundBetSummary, 0, len(room.CurrentBets))
		for _, b := range room.CurrentBets {
			summaries = append(summaries, domain.RoundBetSummary{
				ID:                b.ID,
				StageID:           b.StageID,
				StageName:         b.StageName,
				Title:             b.Title,
				Options:           b.Options,
				WinningOptionID:   b.WinningOptionID,
				WinningOptionName: b.WinningOptionName,
				TotalWagered:      b.TotalWagered(),
				TotalPayout:       b.TotalPayout,
				SettledAt:         b.SettledAt,
			})
		}
		room.ArchiveRound(&domain.SettledRound{
			RoundNumber: roundNumber,
			Bets:        summaries,
			CreatedAt:   room.CurrentBets[0].CreatedAt,
			SettledAt:   now,
		})
	}

	ranking := room.Ranking()
	rankByPlayer := make(map[string]int, len(ranking))
	for _, entry := range ranking {
		rankByPlayer[entry.PlayerID] = entry.Rank
	}
	for _, result := range results {
		result.NewRank = rankByPlayer[result.PlayerID]
	}

	if err := uc.rooms.Save(ctx, room); err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Str("room_code", room.Code).
		Str("bet_id", bet.ID).
		Int("winning_option", winningOptionID).
		Int64("total_payout", totalPayout).
		Bool("all_settled", allSettled).
		Msg("bet settled")

	return &Outcome{
		Bet:         bet,
		Results:     results,
		Ranking:     ranking,
		RoundNumber: roundNumber,
		AllSettled:  allSettled,
	}, nil
}
