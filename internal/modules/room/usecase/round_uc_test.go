package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankieli/wager_arena/internal/modules/room/domain"
	"github.com/frankieli/wager_arena/internal/modules/room/usecase"
)

func TestCreateRoundFromPresets(t *testing.T) {
	f := newFixture()
	room, _ := f.newRoomWithPlayers(t, "alice")

	round, err := f.rounds.CreateRound(context.Background(), room, 1, nil)
	require.NoError(t, err)
	require.Len(t, round.Bets, 1)

	assert.Equal(t, 1, round.RoundNumber)
	assert.Equal(t, 1, room.CurrentRound)
	assert.Equal(t, domain.PhaseBetting, room.BettingPhase)
	assert.Equal(t, domain.BetOpen, round.Bets[0].Status)
	assert.Equal(t, "Win/Loss", round.Bets[0].Title)
	assert.Equal(t, 1.15, round.Bets[0].Options[0].Odds)
}

func TestCreateRoundExplicitDefinitions(t *testing.T) {
	f := newFixture()
	room, _ := f.newRoomWithPlayers(t, "alice")

	bets := f.startRound(t, room,
		winLossDef("First blood"),
		usecase.BetDefinition{Options: []domain.OptionDef{{Name: "yes", Odds: 2}}},
	)
	require.Len(t, bets, 2)
	assert.Equal(t, "First blood", bets[0].Title)
	// Untitled definitions get a positional default
	assert.Equal(t, "Bet 2", bets[1].Title)
}

func TestCreateRoundWhileInProgress(t *testing.T) {
	f := newFixture()
	room, _ := f.newRoomWithPlayers(t, "alice")
	f.startRound(t, room, winLossDef("Win/Loss"))

	_, err := f.rounds.CreateRound(context.Background(), room, 1, nil)
	assert.ErrorIs(t, err, domain.ErrRoundInProgress)
}

func TestCreateRoundUnknownStage(t *testing.T) {
	f := newFixture()
	room, _ := f.newRoomWithPlayers(t, "alice")

	_, err := f.rounds.CreateRound(context.Background(), room, 42, nil)
	var derr *domain.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.CodeInvalidStage, derr.Code)
}

func TestLockRound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	room, _ := f.newRoomWithPlayers(t, "alice")

	_, err := f.rounds.LockRound(ctx, room)
	assert.ErrorIs(t, err, domain.ErrNothingToLock)

	bets := f.startRound(t, room, winLossDef("Win/Loss"))
	ids, err := f.rounds.LockRound(ctx, room)
	require.NoError(t, err)
	assert.Equal(t, []string{bets[0].ID}, ids)

	assert.Equal(t, domain.PhaseLocked, room.BettingPhase)
	assert.Equal(t, domain.BetLocked, bets[0].Status)
	require.NotNil(t, bets[0].LockedAt)
}

func TestOpenBettingPromotesCreatedBets(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	room, _ := f.newRoomWithPlayers(t, "alice")

	_, err := f.rounds.OpenBetting(ctx, room)
	assert.ErrorIs(t, err, domain.ErrNothingToLock)

	bets := f.startRound(t, room, winLossDef("Win/Loss"))
	room.Lock()
	bets[0].Status = domain.BetCreated
	room.Unlock()

	ids, err := f.rounds.OpenBetting(ctx, room)
	require.NoError(t, err)
	assert.Equal(t, []string{bets[0].ID}, ids)
	assert.Equal(t, domain.BetOpen, bets[0].Status)
	assert.Equal(t, domain.PhaseBetting, room.BettingPhase)
}
