package usecase

// Outbound event names. Room-wide events use the room: prefix, private
// events use self:.
const (
	EvtRoomCreated = "dealer:room_created"

	EvtRoundStarted       = "room:round_started"
	EvtBetCreated         = "room:bet_created"
	EvtBettingOpened      = "room:betting_opened"
	EvtBettingLocked      = "room:betting_locked"
	EvtWagerPlaced        = "room:wager_placed"
	EvtWagerCancelled     = "room:wager_cancelled"
	EvtBetSettled         = "room:bet_settled"
	EvtRoundEnded         = "room:round_ended"
	EvtPlayerJoined       = "room:player_joined"
	EvtPlayerLeft         = "room:player_left"
	EvtPlayerReconnected  = "room:player_reconnected"
	EvtPlayerOffline      = "room:player_offline"
	EvtRoomClosing        = "room:closing"
	EvtRoomClosed         = "room:closed"

	EvtJoined         = "self:joined"
	EvtRejoined       = "self:rejoined"
	EvtWagerConfirmed = "self:wager_confirmed"
	EvtWagerRejected  = "self:wager_rejected"
	EvtSettleResult   = "self:settle_result"
	EvtStatsUpdated   = "self:stats_updated"
	EvtKicked         = "self:kicked"

	EvtError = "error"
)

// Scope selects the delivery target of an envelope
type Scope int

const (
	// ScopeConn targets the originating connection
	ScopeConn Scope = iota
	// ScopeRoom fans out to every connection in the room
	ScopeRoom
	// ScopePlayer targets whichever connection the player is currently
	// bound to (players may reconnect under a new connection)
	ScopePlayer
)

// Envelope is one outbound event with its delivery target. Mutation handlers
// return envelope lists instead of talking to the transport, so the game
// logic is testable without a websocket.
type Envelope struct {
	Scope    Scope
	ConnID   int64
	RoomCode string
	PlayerID string
	Event    string
	Data     interface{}
}

// Sink delivers serialized events; implemented by the ws manager and by
// recorders in tests.
type Sink interface {
	JoinRoom(connID int64, roomCode string)
	LeaveRoom(connID int64, roomCode string)
	SendToConn(connID int64, message []byte)
	BroadcastRoom(roomCode string, message []byte)
}

func toConn(connID int64, event string, data interface{}) Envelope {
	return Envelope{Scope: ScopeConn, ConnID: connID, Event: event, Data: data}
}

func toRoom(roomCode, event string, data interface{}) Envelope {
	return Envelope{Scope: ScopeRoom, RoomCode: roomCode, Event: event, Data: data}
}

func toPlayer(playerID, event string, data interface{}) Envelope {
	return Envelope{Scope: ScopePlayer, PlayerID: playerID, Event: event, Data: data}
}
