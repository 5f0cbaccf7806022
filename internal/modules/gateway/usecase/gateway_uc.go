// Package usecase implements the realtime session router: it binds
// connections to rooms and roles, authorizes and dispatches inbound actions
// to the room module, and fans the resulting events out to the right
// connections.
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/frankieli/wager_arena/internal/modules/room/domain"
	roomuc "github.com/frankieli/wager_arena/internal/modules/room/usecase"
	"github.com/frankieli/wager_arena/pkg/logger"
)

// Role is the authorization role of a bound connection
type Role string

const (
	RoleDealer Role = "dealer"
	RolePlayer Role = "player"
)

type session struct {
	roomCode string
	playerID string
	role     Role
}

// ActionEnvelope is the inbound message format
type ActionEnvelope struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type eventMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GatewayUseCase routes inbound actions and outbound events
type GatewayUseCase struct {
	rooms   *roomuc.RoomUseCase
	rounds  *roomuc.RoundUseCase
	wagers  *roomuc.WagerUseCase
	settles *roomuc.SettleUseCase
	sink    Sink

	mu          sync.RWMutex
	sessions    map[int64]*session
	playerConns map[string]int64 // playerID -> current connID
}

// NewGatewayUseCase creates a new gateway use case
func NewGatewayUseCase(
	rooms *roomuc.RoomUseCase,
	rounds *roomuc.RoundUseCase,
	wagers *roomuc.WagerUseCase,
	settles *roomuc.SettleUseCase,
	sink Sink,
) *GatewayUseCase {
	return &GatewayUseCase{
		rooms:       rooms,
		rounds:      rounds,
		wagers:      wagers,
		settles:     settles,
		sink:        sink,
		sessions:    make(map[int64]*session),
		playerConns: make(map[string]int64),
	}
}

// HandleMessage decodes one inbound action, dispatches it, and delivers the
// resulting events. Failures become an error (or rejection) event on the
// originating connection; room state is untouched by failed actions.
func (uc *GatewayUseCase) HandleMessage(ctx context.Context, connID int64, message []byte) {
	var req ActionEnvelope
	if err := json.Unmarshal(message, &req); err != nil {
		uc.deliver(ctx, []Envelope{toConn(connID, EvtError, errorPayload{
			Code:    domain.CodeBadRequest,
			Message: "invalid message format",
		})})
		return
	}

	ctx = logger.WithFields(ctx, map[string]interface{}{
		"conn_id": connID,
		"action":  req.Action,
	})

	var envs []Envelope
	var err error

	switch req.Action {
	case "create_room":
		envs, err = uc.handleCreateRoom(ctx, connID, req.Data)
	case "create_bet":
		envs, err = uc.handleCreateBet(ctx, connID, req.Data)
	case "open_betting":
		envs, err = uc.handleOpenBetting(ctx, connID)
	case "lock_betting":
		envs, err = uc.handleLockBetting(ctx, connID)
	case "settle_bet":
		envs, err = uc.handleSettleBet(ctx, connID, req.Data)
	case "close_room":
		envs, err = uc.handleCloseRoom(ctx, connID)
	case "kick_player":
		envs, err = uc.handleKickPlayer(ctx, connID, req.Data)
	case "join_room":
		envs, err = uc.handleJoinRoom(ctx, connID, req.Data)
	case "rejoin_room":
		envs, err = uc.handleRejoinRoom(ctx, connID, req.Data)
	case "place_wager":
		envs, err = uc.handlePlaceWager(ctx, connID, req.Data)
	case "cancel_wager":
		envs, err = uc.handleCancelWager(ctx, connID, req.Data)
	case "leave_room":
		envs, err = uc.handleLeaveRoom(ctx, connID)
	case "get_stats":
		envs, err = uc.handleGetStats(ctx, connID)
	default:
		err = domain.NewError(domain.CodeBadRequest, "unknown action: %s", req.Action)
	}

	if err != nil {
		uc.deliver(ctx, []Envelope{uc.errorEnvelope(ctx, connID, req.Action, err)})
		return
	}
	uc.deliver(ctx, envs)
}

// errorEnvelope maps an error to the event the client expects. Wager
// placement failures surface as rejection events, everything else as error
// events.
func (uc *GatewayUseCase) errorEnvelope(ctx context.Context, connID int64, action string, err error) Envelope {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		logger.Error(ctx).Err(err).Msg("action failed")
		derr = domain.NewError("internal-error", "internal error")
	} else {
		logger.Warn(ctx).
			Str("code", derr.Code).
			Str("error", derr.Message).
			Msg("action rejected")
	}

	if action == "place_wager" {
		return toConn(connID, EvtWagerRejected, map[string]interface{}{
			"code":   derr.Code,
			"reason": derr.Message,
		})
	}
	return toConn(connID, EvtError, errorPayload{Code: derr.Code, Message: derr.Message})
}

// HandleDisconnect handles a transport-level disconnect. Players go offline
// (not left) so they can resume; dealer disconnects leave the room running.
func (uc *GatewayUseCase) HandleDisconnect(ctx context.Context, connID int64) {
	uc.mu.Lock()
	sess, ok := uc.sessions[connID]
	if ok {
		delete(uc.sessions, connID)
		if sess.playerID != "" && uc.playerConns[sess.playerID] == connID {
			delete(uc.playerConns, sess.playerID)
		}
	}
	uc.mu.Unlock()

	if !ok {
		return
	}

	uc.sink.LeaveRoom(connID, sess.roomCode)

	if sess.role != RolePlayer || sess.playerID == "" {
		return
	}

	player, err := uc.rooms.SetPresence(ctx, sess.roomCode, sess.playerID, domain.PlayerOffline)
	if err != nil {
		logger.Error(ctx).Err(err).Str("room_code", sess.roomCode).Msg("set offline failed")
		return
	}
	if player != nil {
		uc.deliver(ctx, []Envelope{toRoom(sess.roomCode, EvtPlayerOffline, map[string]interface{}{
			"player_id": sess.playerID,
		})})
	}
}

// --- Dealer actions ---

func (uc *GatewayUseCase) handleCreateRoom(ctx context.Context, connID int64, data json.RawMessage) ([]Envelope, error) {
	var payload struct {
		DealerName string `json:"dealer_name"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.DealerName == "" {
		return nil, domain.NewError(domain.CodeBadRequest, "dealer name is required")
	}

	dealerID := strconv.FormatInt(connID, 10)
	room, err := uc.rooms.CreateRoom(ctx, dealerID, payload.DealerName)
	if err != nil {
		return nil, err
	}

	uc.bind(connID, &session{roomCode: room.Code, role: RoleDealer})
	uc.sink.JoinRoom(connID, room.Code)

	return []Envelope{
		toConn(connID, EvtRoomCreated, map[string]interface{}{
			"room": uc.rooms.RoomState(room),
		}),
	}, nil
}

func (uc *GatewayUseCase) handleCreateBet(ctx context.Context, connID int64, data json.RawMessage) ([]Envelope, error) {
	room, _, err := uc.dealerRoom(ctx, connID)
	if err != nil {
		return nil, err
	}

	var payload struct {
		StageID int                    `json:"stage_id"`
		Bets    []roomuc.BetDefinition `json:"bets"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, domain.NewError(domain.CodeBadRequest, "invalid create_bet payload")
	}

	round, err := uc.rounds.CreateRound(ctx, room, payload.StageID, payload.Bets)
	if err != nil {
		return nil, err
	}

	return []Envelope{
		toRoom(room.Code, EvtRoundStarted, map[string]interface{}{
			"round_number": round.RoundNumber,
		}),
		toRoom(room.Code, EvtBetCreated, map[string]interface{}{
			"bets":         round.Bets,
			"round_number": round.RoundNumber,
		}),
	}, nil
}

func (uc *GatewayUseCase) handleOpenBetting(ctx context.Context, connID int64) ([]Envelope, error) {
	room, _, err := uc.dealerRoom(ctx, connID)
	if err != nil {
		return nil, err
	}

	ids, err := uc.rounds.OpenBetting(ctx, room)
	if err != nil {
		return nil, err
	}

	return []Envelope{
		toRoom(room.Code, EvtBettingOpened, map[string]interface{}{
			"bet_ids": ids,
		}),
	}, nil
}

func (uc *GatewayUseCase) handleLockBetting(ctx context.Context, connID int64) ([]Envelope, error) {
	room, _, err := uc.dealerRoom(ctx, connID)
	if err != nil {
		return nil, err
	}

	ids, err := uc.rounds.LockRound(ctx, room)
	if err != nil {
		return nil, err
	}

	return []Envelope{
		toRoom(room.Code, EvtBettingLocked, map[string]interface{}{
			"bet_ids": ids,
		}),
	}, nil
}

func (uc *GatewayUseCase) handleSettleBet(ctx context.Context, connID int64, data json.RawMessage) ([]Envelope, error) {
	room, _, err := uc.dealerRoom(ctx, connID)
	if err != nil {
		return nil, err
	}

	var payload struct {
		BetID           string `json:"bet_id"`
		WinningOptionID int    `json:"winning_option_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, domain.NewError(domain.CodeBadRequest, "invalid settle_bet payload")
	}

	outcome, err := uc.settles.Settle(ctx, room, payload.BetID, payload.WinningOptionID)
	if err != nil {
		return nil, err
	}

	envs := []Envelope{
		toRoom(room.Code, EvtBetSettled, map[string]interface{}{
			"bet":          outcome.Bet,
			"results":      outcome.Results,
			"round_number": outcome.RoundNumber,
			"all_settled":  outcome.AllSettled,
		}),
	}

	// Private results go to the player identity, not the connection that
	// placed the wager: the player may have reconnected since.
	for _, result := range outcome.Results {
		envs = append(envs, toPlayer(result.PlayerID, EvtSettleResult, map[string]interface{}{
			"result":      result,
			"new_balance": result.NewPoints,
		}))
	}

	if outcome.AllSettled {
		envs = append(envs, toRoom(room.Code, EvtRoundEnded, map[string]interface{}{
			"round_number":     outcome.RoundNumber,
			"next_round_ready": true,
		}))
	}

	return envs, nil
}

func (uc *GatewayUseCase) handleCloseRoom(ctx context.Context, connID int64) ([]Envelope, error) {
	room, _, err := uc.dealerRoom(ctx, connID)
	if err != nil {
		return nil, err
	}

	finalRanking := uc.rooms.Ranking(room)

	closed, err := uc.rooms.CloseRoom(ctx, room.Code)
	if err != nil {
		return nil, err
	}

	return []Envelope{
		toRoom(room.Code, EvtRoomClosing, map[string]interface{}{
			"final_ranking": finalRanking,
		}),
		toRoom(room.Code, EvtRoomClosed, map[string]interface{}{
			"stats":         closed.Stats,
			"final_ranking": finalRanking,
		}),
	}, nil
}

func (uc *GatewayUseCase) handleKickPlayer(ctx context.Context, connID int64, data json.RawMessage) ([]Envelope, error) {
	room, _, err := uc.dealerRoom(ctx, connID)
	if err != nil {
		return nil, err
	}

	var payload struct {
		PlayerID string `json:"player_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.PlayerID == "" {
		return nil, domain.NewError(domain.CodeBadRequest, "player_id is required")
	}

	player, err := uc.rooms.RemovePlayer(ctx, room.Code, payload.PlayerID)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, nil
	}

	return []Envelope{
		toPlayer(payload.PlayerID, EvtKicked, map[string]interface{}{
			"reason": "removed by the dealer",
		}),
		toRoom(room.Code, EvtPlayerLeft, map[string]interface{}{
			"player_id": payload.PlayerID,
		}),
	}, nil
}

// --- Player actions ---

func (uc *GatewayUseCase) handleJoinRoom(ctx context.Context, connID int64, data json.RawMessage) ([]Envelope, error) {
	var payload struct {
		RoomCode   string `json:"room_code"`
		PlayerName string `json:"player_name"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.RoomCode == "" || payload.PlayerName == "" {
		return nil, domain.NewError(domain.CodeBadRequest, "room code and player name are required")
	}

	code := strings.ToUpper(payload.RoomCode)
	result, err := uc.rooms.AddPlayer(ctx, code, payload.PlayerName)
	if err != nil {
		return nil, err
	}

	uc.bind(connID, &session{roomCode: code, playerID: result.Player.ID, role: RolePlayer})
	uc.sink.JoinRoom(connID, code)

	joinedEvent := EvtPlayerJoined
	if result.Reconnect {
		joinedEvent = EvtPlayerReconnected
	}

	return []Envelope{
		toConn(connID, EvtJoined, map[string]interface{}{
			"player":     result.Player,
			"room_state": uc.rooms.RoomState(result.Room),
		}),
		toRoom(code, joinedEvent, map[string]interface{}{
			"player": result.Player,
		}),
	}, nil
}

func (uc *GatewayUseCase) handleRejoinRoom(ctx context.Context, connID int64, data json.RawMessage) ([]Envelope, error) {
	var payload struct {
		RoomCode   string `json:"room_code"`
		PlayerID   string `json:"player_id"`
		PlayerName string `json:"player_name"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.RoomCode == "" {
		return nil, domain.NewError(domain.CodeBadRequest, "room code is required")
	}

	code := strings.ToUpper(payload.RoomCode)
	room, err := uc.rooms.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, domain.ErrRoomNotFound
	}

	room.Lock()
	var player *domain.Player
	if payload.PlayerID != "" {
		player = room.PlayerByID(payload.PlayerID)
	}
	if player == nil && payload.PlayerName != "" {
		player = room.PlayerByName(payload.PlayerName)
	}
	room.Unlock()

	if player == nil {
		return nil, domain.ErrPlayerNotFound
	}

	if _, err := uc.rooms.SetPresence(ctx, code, player.ID, domain.PlayerOnline); err != nil {
		return nil, err
	}

	uc.bind(connID, &session{roomCode: code, playerID: player.ID, role: RolePlayer})
	uc.sink.JoinRoom(connID, code)

	return []Envelope{
		toConn(connID, EvtRejoined, map[string]interface{}{
			"player":     player,
			"room_state": uc.rooms.RoomState(room),
			"wagers":     uc.wagers.PlayerWagers(room, player.ID),
		}),
		toRoom(code, EvtPlayerReconnected, map[string]interface{}{
			"player": player,
		}),
	}, nil
}

func (uc *GatewayUseCase) handlePlaceWager(ctx context.Context, connID int64, data json.RawMessage) ([]Envelope, error) {
	room, sess, err := uc.playerRoom(ctx, connID)
	if err != nil {
		return nil, err
	}

	var payload struct {
		BetID    string `json:"bet_id"`
		OptionID int    `json:"option_id"`
		Amount   int64  `json:"amount"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, domain.NewError(domain.CodeBadRequest, "invalid place_wager payload")
	}

	result, err := uc.wagers.PlaceWager(ctx, room, sess.playerID, payload.BetID, payload.OptionID, payload.Amount)
	if err != nil {
		return nil, err
	}

	return []Envelope{
		// Private confirmation carries the new balance; the room broadcast
		// only public fields.
		toConn(connID, EvtWagerConfirmed, map[string]interface{}{
			"wager":       result.Wager,
			"new_balance": result.NewBalance,
		}),
		toRoom(room.Code, EvtWagerPlaced, map[string]interface{}{
			"wager": map[string]interface{}{
				"id":          result.Wager.ID,
				"bet_id":      result.Wager.BetID,
				"bet_title":   result.Wager.BetTitle,
				"player_name": result.Wager.PlayerName,
				"option_name": result.Wager.OptionName,
				"amount":      result.Wager.Amount,
			},
		}),
	}, nil
}

func (uc *GatewayUseCase) handleCancelWager(ctx context.Context, connID int64, data json.RawMessage) ([]Envelope, error) {
	room, sess, err := uc.playerRoom(ctx, connID)
	if err != nil {
		return nil, err
	}

	var payload struct {
		WagerID string `json:"wager_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.WagerID == "" {
		return nil, domain.NewError(domain.CodeBadRequest, "wager_id is required")
	}

	result, err := uc.wagers.CancelWager(ctx, room, sess.playerID, payload.WagerID)
	if err != nil {
		return nil, err
	}

	return []Envelope{
		toConn(connID, EvtWagerConfirmed, map[string]interface{}{
			"wager":       nil,
			"new_balance": result.NewBalance,
		}),
		toRoom(room.Code, EvtWagerCancelled, map[string]interface{}{
			"wager_id": payload.WagerID,
		}),
	}, nil
}

func (uc *GatewayUseCase) handleLeaveRoom(ctx context.Context, connID int64) ([]Envelope, error) {
	uc.mu.Lock()
	sess, ok := uc.sessions[connID]
	if ok {
		delete(uc.sessions, connID)
		if sess.playerID != "" && uc.playerConns[sess.playerID] == connID {
			delete(uc.playerConns, sess.playerID)
		}
	}
	uc.mu.Unlock()

	if !ok {
		return nil, nil
	}

	var envs []Envelope
	if sess.playerID != "" {
		if _, err := uc.rooms.RemovePlayer(ctx, sess.roomCode, sess.playerID); err != nil {
			return nil, err
		}
		envs = append(envs, toRoom(sess.roomCode, EvtPlayerLeft, map[string]interface{}{
			"player_id": sess.playerID,
		}))
	}

	uc.sink.LeaveRoom(connID, sess.roomCode)
	return envs, nil
}

func (uc *GatewayUseCase) handleGetStats(ctx context.Context, connID int64) ([]Envelope, error) {
	room, sess, err := uc.playerRoom(ctx, connID)
	if err != nil {
		return nil, err
	}

	room.Lock()
	player := room.PlayerByID(sess.playerID)
	room.Unlock()
	if player == nil {
		return nil, domain.ErrPlayerNotFound
	}

	return []Envelope{
		toConn(connID, EvtStatsUpdated, map[string]interface{}{
			"stats": player.Stats,
		}),
	}, nil
}

// --- Session helpers ---

func (uc *GatewayUseCase) bind(connID int64, sess *session) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.sessions[connID] = sess
	if sess.playerID != "" {
		uc.playerConns[sess.playerID] = connID
	}
}

func (uc *GatewayUseCase) sessionOf(connID int64) *session {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.sessions[connID]
}

// dealerRoom authorizes a dealer action and resolves its room
func (uc *GatewayUseCase) dealerRoom(ctx context.Context, connID int64) (*domain.Room, *session, error) {
	sess := uc.sessionOf(connID)
	if sess == nil || sess.role != RoleDealer {
		return nil, nil, domain.NewError(domain.CodePermissionDenied, "dealer role required")
	}
	room, err := uc.rooms.GetRoom(ctx, sess.roomCode)
	if err != nil {
		return nil, nil, err
	}
	if room == nil {
		return nil, nil, domain.ErrRoomNotFound
	}
	return room, sess, nil
}

// playerRoom authorizes a player action and resolves its room
func (uc *GatewayUseCase) playerRoom(ctx context.Context, connID int64) (*domain.Room, *session, error) {
	sess := uc.sessionOf(connID)
	if sess == nil || sess.role != RolePlayer || sess.playerID == "" {
		return nil, nil, domain.NewError(domain.CodePermissionDenied, "join a room first")
	}
	room, err := uc.rooms.GetRoom(ctx, sess.roomCode)
	if err != nil {
		return nil, nil, err
	}
	if room == nil {
		return nil, nil, domain.ErrRoomNotFound
	}
	return room, sess, nil
}

// deliver serializes and dispatches envelopes in order
func (uc *GatewayUseCase) deliver(ctx context.Context, envs []Envelope) {
	for _, env := range envs {
		message, err := json.Marshal(eventMessage{Event: env.Event, Data: env.Data})
		if err != nil {
			logger.Error(ctx).Err(err).Str("event", env.Event).Msg("marshal event failed")
			continue
		}

		switch env.Scope {
		case ScopeRoom:
			uc.sink.BroadcastRoom(env.RoomCode, message)
		case ScopePlayer:
			uc.mu.RLock()
			connID, ok := uc.playerConns[env.PlayerID]
			uc.mu.RUnlock()
			if ok {
				uc.sink.SendToConn(connID, message)
			}
		default:
			uc.sink.SendToConn(env.ConnID, message)
		}
	}
}
