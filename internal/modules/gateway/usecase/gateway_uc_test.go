package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	dealerConn int64 = 1
	aliceConn  int64 = 2
	bobConn    int64 = 3
)

func TestCreateRoomBindsDealer(t *testing.T) {
	f := newGatewayFixture()

	code := f.createRoom(t, dealerConn)
	assert.True(t, f.sink.inRoom(dealerConn, code))

	created := lastEvent(t, f.sink.connEvents(dealerConn), "dealer:room_created")
	room := created.Data["room"].(map[string]interface{})
	assert.Equal(t, "active", room["status"])
	assert.Equal(t, "idle", room["betting_phase"])
}

func TestJoinRoom(t *testing.T) {
	f := newGatewayFixture()
	code := f.createRoom(t, dealerConn)

	f.joinRoom(t, aliceConn, code, "alice")
	assert.True(t, f.sink.inRoom(aliceConn, code))

	joined := lastEvent(t, f.sink.roomEvents(code), "room:player_joined")
	player := joined.Data["player"].(map[string]interface{})
	assert.Equal(t, "alice", player["name"])
	assert.Equal(t, float64(1000), player["points"])
}

func TestJoinRoomErrors(t *testing.T) {
	f := newGatewayFixture()
	code := f.createRoom(t, dealerConn)
	f.joinRoom(t, aliceConn, code, "alice")

	// Unknown code
	f.send(t, bobConn, "join_room", map[string]string{"room_code": "ZZZZZZ", "player_name": "bob"})
	errEvt := lastEvent(t, f.sink.connEvents(bobConn), "error")
	assert.Equal(t, "room-not-found", errEvt.Data["code"])

	// Name collision with an online player
	f.send(t, bobConn, "join_room", map[string]string{"room_code": code, "player_name": "alice"})
	errEvt = lastEvent(t, f.sink.connEvents(bobConn), "error")
	assert.Equal(t, "name-taken", errEvt.Data["code"])
}

func TestDealerActionsRequireDealerRole(t *testing.T) {
	f := newGatewayFixture()
	code := f.createRoom(t, dealerConn)
	f.joinRoom(t, aliceConn, code, "alice")

	f.send(t, aliceConn, "create_bet", map[string]interface{}{"stage_id": 1})
	errEvt := lastEvent(t, f.sink.connEvents(aliceConn), "error")
	assert.Equal(t, "permission-denied", errEvt.Data["code"])

	// An unbound connection gets the same answer
	f.send(t, bobConn, "lock_betting", nil)
	errEvt = lastEvent(t, f.sink.connEvents(bobConn), "error")
	assert.Equal(t, "permission-denied", errEvt.Data["code"])
}

func TestRoundAndWagerFlow(t *testing.T) {
	f := newGatewayFixture()
	code := f.createRoom(t, dealerConn)
	f.joinRoom(t, aliceConn, code, "alice")

	betID := f.startRound(t, dealerConn, code)
	started := lastEvent(t, f.sink.roomEvents(code), "room:round_started")
	assert.Equal(t, float64(1), started.Data["round_number"])

	f.send(t, aliceConn, "place_wager", map[string]interface{}{
		"bet_id": betID, "option_id": 1, "amount": 200,
	})

	confirmed := lastEvent(t, f.sink.connEvents(aliceConn), "self:wager_confirmed")
	assert.Equal(t, float64(800), confirmed.Data["new_balance"])
	wager := confirmed.Data["wager"].(map[string]interface{})
	assert.Equal(t, float64(1.15), wager["odds"])

	// The room broadcast exposes only public fields
	placed := lastEvent(t, f.sink.roomEvents(code), "room:wager_placed")
	public := placed.Data["wager"].(map[string]interface{})
	assert.Equal(t, "alice", public["player_name"])
	assert.Equal(t, float64(200), public["amount"])
	assert.NotContains(t, public, "player_id")
	assert.NotContains(t, public, "odds")
}

func TestWagerRejection(t *testing.T) {
	f := newGatewayFixture()
	code := f.createRoom(t, dealerConn)
	f.joinRoom(t, aliceConn, code, "alice")
	betID := f.startRound(t, dealerConn, code)

	f.send(t, aliceConn, "place_wager", map[string]interface{}{
		"bet_id": betID, "option_id": 1, "amount": 5000,
	})

	rejected := lastEvent(t, f.sink.connEvents(aliceConn), "self:wager_rejected")
	assert.Equal(t, "insufficient-points", rejected.Data["code"])

	// Placement failures never surface as plain errors
	assert.False(t, hasEvent(f.sink.connEvents(aliceConn), "error"))
}

func TestCancelWagerFlow(t *testing.T) {
	f := newGatewayFixture()
	code := f.createRoom(t, dealerConn)
	f.joinRoom(t, aliceConn, code, "alice")
	betID := f.startRound(t, dealerConn, code)

	f.send(t, aliceConn, "place_wager", map[string]interface{}{
		"bet_id": betID, "option_id": 1, "amount": 200,
	})
	confirmed := lastEvent(t, f.sink.connEvents(aliceConn), "self:wager_confirmed")
	wagerID := confirmed.Data["wager"].(map[string]interface{})["id"].(string)

	f.send(t, aliceConn, "cancel_wager", map[string]string{"wager_id": wagerID})

	confirmed = lastEvent(t, f.sink.connEvents(aliceConn), "self:wager_confirmed")
	assert.Nil(t, confirmed.Data["wager"])
	assert.Equal(t, float64(1000), confirmed.Data["new_balance"])

	cancelled := lastEvent(t, f.sink.roomEvents(code), "room:wager_cancelled")
	assert.Equal(t, wagerID, cancelled.Data["wager_id"])
}

func TestSettleFlow(t *testing.T) {
	f := newGatewayFixture()
	code := f.createRoom(t, dealerConn)
	f.joinRoom(t, aliceConn, code, "alice")
	betID := f.startRound(t, dealerConn, code)

	f.send(t, aliceConn, "place_wager", map[string]interface{}{
		"bet_id": betID, "option_id": 1, "amount": 200,
	})
	f.send(t, dealerConn, "lock_betting", nil)
	assert.True(t, hasEvent(f.sink.roomEvents(code), "room:betting_locked"))

	f.send(t, dealerConn, "settle_bet", map[string]interface{}{
		"bet_id": betID, "winning_option_id": 1,
	})

	settled := lastEvent(t, f.sink.roomEvents(code), "room:bet_settled")
	assert.Equal(t, true, settled.Data["all_settled"])

	// 200 * 1.15 is 229.99999999999997 in float64, so the floor pays 229
	result := lastEvent(t, f.sink.connEvents(aliceConn), "self:settle_result")
	assert.Equal(t, float64(1029), result.Data["new_balance"])
	detail := result.Data["result"].(map[string]interface{})
	assert.Equal(t, true, detail["won"])
	assert.Equal(t, float64(229), detail["payout"])

	ended := lastEvent(t, f.sink.roomEvents(code), "room:round_ended")
	assert.Equal(t, true, ended.Data["next_round_ready"])

	// Room is idle again, a new round can start
	f.send(t, dealerConn, "create_bet", map[string]interface{}{"stage_id": 2})
	started := lastEvent(t, f.sink.roomEvents(code), "room:round_started")
	assert.Equal(t, float64(2), started.Data["round_number"])
}

func TestDisconnectAndRejoin(t *testing.T) {
	f := newGatewayFixture()
	code := f.createRoom(t, dealerConn)
	playerID := f.joinRoom(t, aliceConn, code, "alice")

	f.gateway.HandleDisconnect(context.Background(), aliceConn)

	offline := lastEvent(t, f.sink.roomEvents(code), "room:player_offline")
	assert.Equal(t, playerID, offline.Data["player_id"])
	assert.False(t, f.sink.inRoom(aliceConn, code))

	// Resume on a fresh connection keeps the identity
	f.send(t, bobConn, "rejoin_room", map[string]string{"room_code": code, "player_id": playerID})

	rejoined := lastEvent(t, f.sink.connEvents(bobConn), "self:rejoined")
	player := rejoined.Data["player"].(map[string]interface{})
	assert.Equal(t, playerID, player["id"])
	assert.Equal(t, "online", player["status"])
	assert.True(t, f.sink.inRoom(bobConn, code))
}

func TestLeaveRoom(t *testing.T) {
	f := newGatewayFixture()
	code := f.createRoom(t, dealerConn)
	playerID := f.joinRoom(t, aliceConn, code, "alice")

	f.send(t, aliceConn, "leave_room", nil)

	left := lastEvent(t, f.sink.roomEvents(code), "room:player_left")
	assert.Equal(t, playerID, left.Data["player_id"])
	assert.False(t, f.sink.inRoom(aliceConn, code))
}

func TestKickPlayer(t *testing.T) {
	f := newGatewayFixture()
	code := f.createRoom(t, dealerConn)
	playerID := f.joinRoom(t, aliceConn, code, "alice")

	f.send(t, dealerConn, "kick_player", map[string]string{"player_id": playerID})

	assert.True(t, hasEvent(f.sink.connEvents(aliceConn), "self:kicked"))
	left := lastEvent(t, f.sink.roomEvents(code), "room:player_left")
	assert.Equal(t, playerID, left.Data["player_id"])
}

func TestGetStats(t *testing.T) {
	f := newGatewayFixture()
	code := f.createRoom(t, dealerConn)
	f.joinRoom(t, aliceConn, code, "alice")

	f.send(t, aliceConn, "get_stats", nil)

	stats := lastEvent(t, f.sink.connEvents(aliceConn), "self:stats_updated")
	detail := stats.Data["stats"].(map[string]interface{})
	assert.Equal(t, float64(0), detail["rounds_played"])
}

func TestCloseRoomFlow(t *testing.T) {
	f := newGatewayFixture()
	code := f.createRoom(t, dealerConn)
	f.joinRoom(t, aliceConn, code, "alice")

	f.send(t, dealerConn, "close_room", nil)

	assert.True(t, hasEvent(f.sink.roomEvents(code), "room:closing"))
	closed := lastEvent(t, f.sink.roomEvents(code), "room:closed")
	ranking := closed.Data["final_ranking"].([]interface{})
	require.Len(t, ranking, 1)

	// The room is gone afterwards
	f.send(t, bobConn, "join_room", map[string]string{"room_code": code, "player_name": "bob"})
	errEvt := lastEvent(t, f.sink.connEvents(bobConn), "error")
	assert.Equal(t, "room-not-found", errEvt.Data["code"])
}

func TestMalformedMessage(t *testing.T) {
	f := newGatewayFixture()

	f.gateway.HandleMessage(context.Background(), dealerConn, []byte("not json"))
	errEvt := lastEvent(t, f.sink.connEvents(dealerConn), "error")
	assert.Equal(t, "bad-request", errEvt.Data["code"])

	f.send(t, dealerConn, "warp_drive", nil)
	errEvt = lastEvent(t, f.sink.connEvents(dealerConn), "error")
	assert.Equal(t, "bad-request", errEvt.Data["code"])
}
