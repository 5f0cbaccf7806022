package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankieli/wager_arena/internal/modules/room/domain"
)

func TestCreateRoom(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	room, err := f.rooms.CreateRoom(ctx, "dealer-1", "Dealer")
	require.NoError(t, err)

	assert.Len(t, room.Code, domain.CodeLength)
	assert.Equal(t, domain.RoomActive, room.Status)
	assert.Equal(t, domain.PhaseIdle, room.BettingPhase)
	assert.Equal(t, 0, room.CurrentRound)

	// Persisted and retrievable by code
	loaded, err := f.rooms.GetRoom(ctx, room.Code)
	require.NoError(t, err)
	assert.Same(t, room, loaded)
}

func TestGetRoomMiss(t *testing.T) {
	f := newFixture()

	room, err := f.rooms.GetRoom(context.Background(), "NOSUCH")
	require.NoError(t, err)
	assert.Nil(t, room)
}

func TestAddPlayer(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	room, _ := f.newRoomWithPlayers(t)

	result, err := f.rooms.AddPlayer(ctx, room.Code, "alice")
	require.NoError(t, err)
	assert.False(t, result.Reconnect)
	assert.Equal(t, int64(testInitialPoints), result.Player.Points)
	assert.Equal(t, domain.PlayerOnline, result.Player.Status)

	_, err = f.rooms.AddPlayer(ctx, "NOSUCH", "bob")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestAddPlayerNameTaken(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	room, _ := f.newRoomWithPlayers(t, "alice")

	_, err := f.rooms.AddPlayer(ctx, room.Code, "alice")
	assert.ErrorIs(t, err, domain.ErrNameTaken)
}

func TestAddPlayerResumesOffline(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	room, players := f.newRoomWithPlayers(t, "alice")
	alice := players["alice"]
	alice.Points = 1700

	_, err := f.rooms.SetPresence(ctx, room.Code, alice.ID, domain.PlayerOffline)
	require.NoError(t, err)

	// Joining again with the same name resumes the identity and balance
	result, err := f.rooms.AddPlayer(ctx, room.Code, "alice")
	require.NoError(t, err)
	assert.True(t, result.Reconnect)
	assert.Equal(t, alice.ID, result.Player.ID)
	assert.Equal(t, int64(1700), result.Player.Points)
	assert.Equal(t, domain.PlayerOnline, result.Player.Status)
}

func TestRemovePlayerFreesName(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	room, players := f.newRoomWithPlayers(t, "alice")

	left, err := f.rooms.RemovePlayer(ctx, room.Code, players["alice"].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlayerLeft, left.Status)

	// The name is available again; the newcomer is a fresh identity
	result, err := f.rooms.AddPlayer(ctx, room.Code, "alice")
	require.NoError(t, err)
	assert.False(t, result.Reconnect)
	assert.NotEqual(t, left.ID, result.Player.ID)
}

func TestSetPresenceMissingPlayer(t *testing.T) {
	f := newFixture()
	room, _ := f.newRoomWithPlayers(t)

	player, err := f.rooms.SetPresence(context.Background(), room.Code, "missing", domain.PlayerOffline)
	require.NoError(t, err)
	assert.Nil(t, player)
}

func TestCloseRoom(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	room, _ := f.newRoomWithPlayers(t, "alice")

	closed, err := f.rooms.CloseRoom(ctx, room.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomClosed, closed.Status)
	require.NotNil(t, closed.Stats.EndTime)

	// Closed rooms are unreachable and unjoinable
	loaded, err := f.rooms.GetRoom(ctx, room.Code)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	_, err = f.rooms.AddPlayer(ctx, room.Code, "bob")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestRoomStateTrimsHistory(t *testing.T) {
	f := newFixture()
	room, players := f.newRoomWithPlayers(t, "alice")
	players["alice"].Status = domain.PlayerOffline

	room.Lock()
	for i := 1; i <= 8; i++ {
		room.History = append(room.History, &domain.SettledRound{RoundNumber: i})
	}
	room.Unlock()

	state := f.rooms.RoomState(room)
	require.Len(t, state.History, 5)
	assert.Equal(t, 4, state.History[0].RoundNumber)

	// Offline players still appear in the snapshot
	require.Len(t, state.Players, 1)
	assert.Equal(t, domain.PlayerOffline, state.Players[0].Status)
}
