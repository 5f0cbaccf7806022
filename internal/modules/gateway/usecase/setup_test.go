package usecase_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/frankieli/wager_arena/internal/modules/catalog"
	gatewayuc "github.com/frankieli/wager_arena/internal/modules/gateway/usecase"
	"github.com/frankieli/wager_arena/internal/modules/room/repository/memory"
	roomuc "github.com/frankieli/wager_arena/internal/modules/room/usecase"
	"github.com/frankieli/wager_arena/pkg/logger"
)

func init() {
	logger.Init(logger.Config{Level: "error", Format: "console"})
}

// sentEvent is one decoded outbound message
type sentEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// recorderSink captures gateway output instead of writing to websockets
type recorderSink struct {
	mu      sync.Mutex
	members map[string]map[int64]bool // roomCode -> connIDs
	byConn  map[int64][]sentEvent
	byRoom  map[string][]sentEvent
}

func newRecorderSink() *recorderSink {
	return &recorderSink{
		members: make(map[string]map[int64]bool),
		byConn:  make(map[int64][]sentEvent),
		byRoom:  make(map[string][]sentEvent),
	}
}

func (s *recorderSink) JoinRoom(connID int64, roomCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.members[roomCode] == nil {
		s.members[roomCode] = make(map[int64]bool)
	}
	s.members[roomCode][connID] = true
}

func (s *recorderSink) LeaveRoom(connID int64, roomCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members[roomCode], connID)
}

func (s *recorderSink) SendToConn(connID int64, message []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byConn[connID] = append(s.byConn[connID], decodeEvent(message))
}

func (s *recorderSink) BroadcastRoom(roomCode string, message []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byRoom[roomCode] = append(s.byRoom[roomCode], decodeEvent(message))
}

func decodeEvent(message []byte) sentEvent {
	var e sentEvent
	if err := json.Unmarshal(message, &e); err != nil {
		panic(fmt.Sprintf("undecodable event: %v", err))
	}
	return e
}

// connEvents returns everything sent directly to a connection
func (s *recorderSink) connEvents(connID int64) []sentEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentEvent(nil), s.byConn[connID]...)
}

// roomEvents returns everything broadcast to a room
func (s *recorderSink) roomEvents(roomCode string) []sentEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentEvent(nil), s.byRoom[roomCode]...)
}

func (s *recorderSink) inRoom(connID int64, roomCode string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members[roomCode][connID]
}

// lastEvent returns the most recent event with the given name, failing the
// test when it was never sent
func lastEvent(t *testing.T, events []sentEvent, name string) sentEvent {
	t.Helper()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Event == name {
			return events[i]
		}
	}
	t.Fatalf("event %q not found in %d events", name, len(events))
	return sentEvent{}
}

func hasEvent(events []sentEvent, name string) bool {
	for _, e := range events {
		if e.Event == name {
			return true
		}
	}
	return false
}

// gatewayFixture wires a full gateway over an in-memory store
type gatewayFixture struct {
	gateway *gatewayuc.GatewayUseCase
	sink    *recorderSink
}

func newGatewayFixture() *gatewayFixture {
	rooms := roomuc.NewRoomUseCase(memory.NewRoomRepository(), 1000)
	rounds := roomuc.NewRoundUseCase(rooms, catalog.Default())
	wagers := roomuc.NewWagerUseCase(rooms)
	settles := roomuc.NewSettleUseCase(rooms)

	sink := newRecorderSink()
	return &gatewayFixture{
		gateway: gatewayuc.NewGatewayUseCase(rooms, rounds, wagers, settles, sink),
		sink:    sink,
	}
}

// send dispatches one action as it would arrive off the wire
func (f *gatewayFixture) send(t *testing.T, connID int64, action string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	message, err := json.Marshal(map[string]interface{}{"action": action, "data": json.RawMessage(raw)})
	require.NoError(t, err)
	f.gateway.HandleMessage(context.Background(), connID, message)
}

// createRoom runs the dealer bootstrap and returns the room code
func (f *gatewayFixture) createRoom(t *testing.T, connID int64) string {
	t.Helper()
	f.send(t, connID, "create_room", map[string]string{"dealer_name": "Dealer"})

	created := lastEvent(t, f.sink.connEvents(connID), "dealer:room_created")
	room, ok := created.Data["room"].(map[string]interface{})
	require.True(t, ok)
	code, ok := room["code"].(string)
	require.True(t, ok)
	require.Len(t, code, 6)
	return code
}

// joinRoom joins a player and returns their id
func (f *gatewayFixture) joinRoom(t *testing.T, connID int64, code, name string) string {
	t.Helper()
	f.send(t, connID, "join_room", map[string]string{"room_code": code, "player_name": name})

	joined := lastEvent(t, f.sink.connEvents(connID), "self:joined")
	player, ok := joined.Data["player"].(map[string]interface{})
	require.True(t, ok)
	id, ok := player["id"].(string)
	require.True(t, ok)
	return id
}

// startRound creates a preset round and returns the first bet id
func (f *gatewayFixture) startRound(t *testing.T, dealerConn int64, code string) string {
	t.Helper()
	f.send(t, dealerConn, "create_bet", map[string]interface{}{"stage_id": 1})

	created := lastEvent(t, f.sink.roomEvents(code), "room:bet_created")
	bets, ok := created.Data["bets"].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, bets)
	bet, ok := bets[0].(map[string]interface{})
	require.True(t, ok)
	id, ok := bet["id"].(string)
	require.True(t, ok)
	return id
}
