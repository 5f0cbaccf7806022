package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/frankieli/wager_arena/internal/modules/catalog"
	"github.com/frankieli/wager_arena/internal/modules/room/domain"
	"github.com/frankieli/wager_arena/pkg/logger"
)

// BetDefinition is an explicit bet supplied by the dealer instead of the
// stage's preset templates
type BetDefinition struct {
	Title   string             `json:"title"`
	Options []domain.OptionDef `json:"options"`
}

// RoundUseCase creates rounds of bets and drives the open/lock transitions.
// Bet lifecycle is strictly open -> locked -> settled; a round's bets are
// created together and share the round number.
type RoundUseCase struct {
	rooms   *RoomUseCase
	catalog catalog.Catalog
}

// NewRoundUseCase creates a new round use case
func NewRoundUseCase(rooms *RoomUseCase, cat catalog.Catalog) *RoundUseCase {
	return &RoundUseCase{rooms: rooms, catalog: cat}
}

// RoundResult is the outcome of CreateRound, captured while the room lock is
// still held so callers never re-read the room unlocked
type RoundResult struct {
	Bets        []*domain.Bet
	RoundNumber int
}

// CreateRound starts a new round: one bet per explicit definition, or one
// per preset template of the stage when none are given. Advances the round
// counter and moves the room to the betting phase.
func (uc *RoundUseCase) CreateRound(ctx context.Context, room *domain.Room, stageID int, defs []BetDefinition) (*RoundResult, error) {
	room.Lock()
	defer room.Unlock()

	if room.BettingPhase != domain.PhaseIdle {
		return nil, domain.ErrRoundInProgress
	}

	stage, ok := uc.catalog.Stage(stageID)
	if !ok {
		return nil, domain.NewError(domain.CodeInvalidStage, "unknown stage %d", stageID)
	}

	bets := make([]*domain.Bet, 0)
	if len(defs) > 0 {
		for i, def := range defs {
			title := def.Title
			if title == "" {
				title = fmt.Sprintf("Bet %d", i+1)
			}
			bets = append(bets, domain.NewBet(stage.ID, stage.Name, title, def.Options))
		}
	} else {
		for _, tpl := range stage.Bets {
			defs := make([]domain.OptionDef, 0, len(tpl.Options))
			for _, opt := range tpl.Options {
				defs = append(defs, domain.OptionDef{Name: opt.Name, Odds: opt.Odds})
			}
			bets = append(bets, domain.NewBet(stage.ID, stage.Name, tpl.Title, defs))
		}
	}

	if len(bets) == 0 {
		return nil, domain.NewError(domain.CodeNoBetsAvailable, "stage %d has no bets", stageID)
	}

	room.CurrentBets = bets
	room.CurrentRound++
	room.BettingPhase = domain.PhaseBetting

	if err := uc.rooms.Save(ctx, room); err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Str("room_code", room.Code).
		Int("round", room.CurrentRound).
		Int("bets", len(bets)).
		Msg("round created")

	return &RoundResult{Bets: bets, RoundNumber: room.CurrentRound}, nil
}

// OpenBetting promotes any created bets to open and re-asserts the betting
// phase. Returns the ids of the round's bets.
func (uc *RoundUseCase) OpenBetting(ctx context.Context, room *domain.Room) ([]string, error) {
	room.Lock()
	defer room.Unlock()

	if len(room.CurrentBets) == 0 {
		return nil, domain.ErrNothingToLock
	}

	ids := make([]string, 0, len(room.CurrentBets))
	for _, bet := range room.CurrentBets {
		bet.Open()
		ids = append(ids, bet.ID)
	}
	room.BettingPhase = domain.PhaseBetting

	if err := uc.rooms.Save(ctx, room); err != nil {
		return nil, err
	}
	return ids, nil
}

// LockRound locks every open bet of the current round and moves the room to
// the locked phase. Wagers become immutable from here on. Returns the ids of
// the locked bets.
func (uc *RoundUseCase) LockRound(ctx context.Context, room *domain.Room) ([]string, error) {
	room.Lock()
	defer room.Unlock()

	if len(room.CurrentBets) == 0 {
		return nil, domain.ErrNothingToLock
	}

	now := time.Now()
	ids := make([]string, 0, len(room.CurrentBets))
	for _, bet := range room.CurrentBets {
		bet.Lock(now)
		ids = append(ids, bet.ID)
	}
	room.BettingPhase = domain.PhaseLocked

	if err := uc.rooms.Save(ctx, room); err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Str("room_code", room.Code).
		Int("round", room.CurrentRound).
		Msg("betting locked")

	return ids, nil
}
