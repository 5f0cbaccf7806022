package usecase

import (
	"context"

	"github.com/frankieli/wager_arena/internal/modules/room/domain"
	"github.com/frankieli/wager_arena/pkg/logger"
)

// WagerUseCase validates and records player wagers against open bets.
// A player may hold multiple wagers on the same bet; that flexibility is
// intentional and the settlement engine accounts for it.
type WagerUseCase struct {
	rooms *RoomUseCase
}

// NewWagerUseCase creates a new wager use case
func NewWagerUseCase(rooms *RoomUseCase) *WagerUseCase {
	return &WagerUseCase{rooms: rooms}
}

// Validate runs the placement checks in order: bet open, positive amount,
// sufficient balance, option exists. The first failing check is returned.
func (uc *WagerUseCase) Validate(player *domain.Player, bet *domain.Bet, optionID int, amount int64) (*domain.Option, *domain.Error) {
	if bet == nil || !bet.IsOpen() {
		return nil, domain.ErrBetNotOpen
	}
	if amount <= 0 {
		return nil, domain.NewError(domain.CodeInvalidAmount, "amount must be positive")
	}
	if amount > player.Points {
		return nil, domain.NewError(domain.CodeInsufficientPoints, "insufficient points, balance is %d", player.Points)
	}
	option := bet.Option(optionID)
	if option == nil {
		return nil, domain.ErrInvalidOption
	}
	return option, nil
}

// PlaceResult is the outcome of PlaceWager
type PlaceResult struct {
	Wager      *domain.Wager
	NewBalance int64
}

// PlaceWager debits the player, updates option totals, snapshots the odds
// and records the wager. With an empty betID the round's first bet is used.
func (uc *WagerUseCase) PlaceWager(ctx context.Context, room *domain.Room, playerID, betID string, optionID int, amount int64) (*PlaceResult, error) {
	room.Lock()
	defer room.Unlock()

	var bet *domain.Bet
	if betID != "" {
		bet = room.BetByID(betID)
	} else if len(room.CurrentBets) > 0 {
		bet = room.CurrentBets[0]
	}
	if bet == nil {
		return nil, domain.ErrBetNotFound
	}

	player := room.PlayerByID(playerID)
	if player == nil {
		return nil, domain.ErrPlayerNotFound
	}

	option, verr := uc.Validate(player, bet, optionID, amount)
	if verr != nil {
		return nil, verr
	}

	player.Points -= amount
	player.Touch()

	option.TotalAmount += amount
	option.WagerCount++

	wager := domain.NewWager(bet, player, option, amount)
	bet.Wagers = append(bet.Wagers, wager)

	room.Stats.TotalWagered += amount

	if err := uc.rooms.Save(ctx, room); err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Str("room_code", room.Code).
		Str("player_name", player.Name).
		Str("bet_id", bet.ID).
		Str("option", option.Name).
		Int64("amount", amount).
		Msg("wager placed")

	return &PlaceResult{Wager: wager, NewBalance: player.Points}, nil
}

// CancelResult is the outcome of CancelWager
type CancelResult struct {
	Wager      *domain.Wager
	NewBalance int64
}

// CancelWager refunds and removes a wager. Only permitted while the owning
// bet is still open.
func (uc *WagerUseCase) CancelWager(ctx context.Context, room *domain.Room, playerID, wagerID string) (*CancelResult, error) {
	room.Lock()
	defer room.Unlock()

	var bet *domain.Bet
	var wager *domain.Wager
	for _, b := range room.CurrentBets {
		for _, w := range b.Wagers {
			if w.ID == wagerID && w.PlayerID == playerID {
				bet = b
				wager = w
				break
			}
		}
		if wager != nil {
			break
		}
	}
	if wager == nil {
		return nil, domain.ErrWagerNotFound
	}
	if !bet.IsOpen() {
		return nil, domain.ErrBetNotOpen
	}

	player := room.PlayerByID(playerID)
	if player == nil {
		return nil, domain.ErrPlayerNotFound
	}

	player.Points += wager.Amount

	if option := bet.Option(wager.OptionID); option != nil {
		option.TotalAmount -= wager.Amount
		option.WagerCount--
	}

	bet.RemoveWager(wager.ID)
	room.Stats.TotalWagered -= wager.Amount

	if err := uc.rooms.Save(ctx, room); err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Str("room_code", room.Code).
		Str("player_name", player.Name).
		Str("wager_id", wagerID).
		Msg("wager cancelled")

	return &CancelResult{Wager: wager, NewBalance: player.Points}, nil
}

// PlayerWagers lists a player's wagers across the current round's bets
func (uc *WagerUseCase) PlayerWagers(room *domain.Room, playerID string) []*domain.Wager {
	room.Lock()
	defer room.Unlock()

	wagers := make([]*domain.Wager, 0)
	for _, bet := range room.CurrentBets {
		for _, w := range bet.Wagers {
			if w.PlayerID == playerID {
				wagers = append(wagers, w)
			}
		}
	}
	return wagers
}
