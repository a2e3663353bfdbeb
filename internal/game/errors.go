package game

import "fmt"

// Code is a machine-readable rejection code.
type Code string

const (
	CodeInvalidPhase        Code = "INVALID_PHASE"
	CodeNotYourTurn         Code = "NOT_YOUR_TURN"
	CodeInvalidTarget       Code = "INVALID_TARGET"
	CodeInsufficientFunds   Code = "INSUFFICIENT_FUNDS"
	CodeMandatoryCoup       Code = "MANDATORY_COUP"
	CodeIneligibleResponder Code = "INELIGIBLE_RESPONDER"
	CodeInvalidClaim        Code = "INVALID_CLAIM"
	CodeInvalidSelection    Code = "INVALID_SELECTION"

	// Lobby and dispatcher rejections.
	CodeUnknownSeat      Code = "UNKNOWN_SEAT"
	CodeTableFull        Code = "TABLE_FULL"
	CodeNotEnoughPlayers Code = "NOT_ENOUGH_PLAYERS"
	CodeInvalidAction    Code = "INVALID_ACTION"
)

// Error is a rejected call. The game state is left untouched whenever one is returned.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is a game error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidPhase        = &Error{Code: CodeInvalidPhase, Message: "invalid phase"}
	ErrNotYourTurn         = &Error{Code: CodeNotYourTurn, Message: "not your turn"}
	ErrInvalidTarget       = &Error{Code: CodeInvalidTarget, Message: "invalid target"}
	ErrInsufficientFunds   = &Error{Code: CodeInsufficientFunds, Message: "insufficient funds"}
	ErrMandatoryCoup       = &Error{Code: CodeMandatoryCoup, Message: "must coup"}
	ErrIneligibleResponder = &Error{Code: CodeIneligibleResponder, Message: "ineligible responder"}
	ErrInvalidClaim        = &Error{Code: CodeInvalidClaim, Message: "invalid claim"}
	ErrInvalidSelection    = &Error{Code: CodeInvalidSelection, Message: "invalid selection"}
	ErrUnknownSeat         = &Error{Code: CodeUnknownSeat, Message: "unknown seat"}
	ErrTableFull           = &Error{Code: CodeTableFull, Message: "table full"}
	ErrNotEnoughPlayers    = &Error{Code: CodeNotEnoughPlayers, Message: "not enough players"}
	ErrInvalidAction       = &Error{Code: CodeInvalidAction, Message: "invalid action"}
)

func reject(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func rejectWith(code Code, metadata map[string]string, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Metadata: metadata}
}
