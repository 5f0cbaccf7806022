package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/frankieli/wager_arena/internal/modules/catalog"
	"github.com/frankieli/wager_arena/internal/modules/room/domain"
	"github.com/frankieli/wager_arena/internal/modules/room/repository/memory"
	"github.com/frankieli/wager_arena/internal/modules/room/usecase"
	"github.com/frankieli/wager_arena/pkg/logger"
)

func init() {
	logger.Init(logger.Config{Level: "error", Format: "console"})
}

const testInitialPoints = 1000

type fixture struct {
	rooms   *usecase.RoomUseCase
	rounds  *usecase.RoundUseCase
	wagers  *usecase.WagerUseCase
	settles *usecase.SettleUseCase
}

func newFixture() *fixture {
	rooms := usecase.NewRoomUseCase(memory.NewRoomRepository(), testInitialPoints)
	return &fixture{
		rooms:   rooms,
		rounds:  usecase.NewRoundUseCase(rooms, catalog.Default()),
		wagers:  usecase.NewWagerUseCase(rooms),
		settles: usecase.NewSettleUseCase(rooms),
	}
}

// newRoomWithPlayers creates a room and joins the named players
func (f *fixture) newRoomWithPlayers(t *testing.T, names ...string) (*domain.Room, map[string]*domain.Player) {
	t.Helper()
	ctx := context.Background()

	room, err := f.rooms.CreateRoom(ctx, "dealer-1", "Dealer")
	require.NoError(t, err)

	players := make(map[string]*domain.Player, len(names))
	for _, name := range names {
		result, err := f.rooms.AddPlayer(ctx, room.Code, name)
		require.NoError(t, err)
		players[name] = result.Player
	}
	return room, players
}

// startRound creates and returns a round built from explicit definitions
func (f *fixture) startRound(t *testing.T, room *domain.Room, defs ...usecase.BetDefinition) []*domain.Bet {
	t.Helper()
	round, err := f.rounds.CreateRound(context.Background(), room, 1, defs)
	require.NoError(t, err)
	return round.Bets
}

func winLossDef(title string) usecase.BetDefinition {
	return usecase.BetDefinition{
		Title: title,
		Options: []domain.OptionDef{
			{Name: "Player wins", Odds: 1.5},
			{Name: "Player loses", Odds: 2.5},
		},
	}
}
