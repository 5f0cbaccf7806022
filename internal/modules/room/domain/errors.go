package domain

import "fmt"

// Error codes are stable symbolic strings; messages are free to change.
const (
	CodeBadRequest             = "bad-request"
	CodeRoomNotFound           = "room-not-found"
	CodeRoomClosed             = "room-closed"
	CodeNameTaken              = "name-taken"
	CodePlayerNotFound         = "player-not-found"
	CodeRoundInProgress        = "round-in-progress"
	CodeInvalidStage           = "invalid-stage"
	CodeNoBetsAvailable        = "no-bets-available"
	CodeNothingToLock          = "nothing-to-lock"
	CodeBetNotFound            = "bet-not-found"
	CodeBetNotOpen             = "bet-not-open"
	CodeWagerNotFound          = "wager-not-found"
	CodeInvalidAmount          = "invalid-amount"
	CodeInsufficientPoints     = "insufficient-points"
	CodeInvalidOption          = "invalid-option"
	CodeInvalidSettlementState = "invalid-settlement-state"
	CodePermissionDenied       = "permission-denied"
)

// Error is a per-action domain failure. None are fatal: room state is left
// unchanged whenever one is returned.
type Error struct {
	Code    string
	Message string
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a domain error
func NewError(code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Predefined errors for the fixed-message cases
var (
	ErrRoomNotFound    = &Error{Code: CodeRoomNotFound, Message: "room not found"}
	ErrRoomClosed      = &Error{Code: CodeRoomClosed, Message: "room is closed"}
	ErrNameTaken       = &Error{Code: CodeNameTaken, Message: "name already in use"}
	ErrPlayerNotFound  = &Error{Code: CodePlayerNotFound, Message: "player not found"}
	ErrRoundInProgress = &Error{Code: CodeRoundInProgress, Message: "a round is already in progress"}
	ErrNothingToLock   = &Error{Code: CodeNothingToLock, Message: "no bets in flight"}
	ErrBetNotFound     = &Error{Code: CodeBetNotFound, Message: "bet not found"}
	ErrBetNotOpen      = &Error{Code: CodeBetNotOpen, Message: "bet is not open"}
	ErrWagerNotFound   = &Error{Code: CodeWagerNotFound, Message: "wager not found"}
	ErrInvalidOption   = &Error{Code: CodeInvalidOption, Message: "invalid option"}
)
