package poker

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorCode identifies the kind of a rejected action or setup failure.
type ErrorCode string

const (
	CodeGameNotInProgress ErrorCode = "game_not_in_progress"
	CodePlayerNotFound    ErrorCode = "player_not_found"
	CodeNotActivePlayer   ErrorCode = "not_active_player"
	CodeNotYourTurn       ErrorCode = "not_your_turn"
	CodeInvalidAction     ErrorCode = "invalid_action"
	CodeInvalidAmount     ErrorCode = "invalid_amount"
	CodeInsufficientChips ErrorCode = "insufficient_chips"
	CodeMustCallOrFold    ErrorCode = "must_call_or_fold"
	CodeNothingToCall     ErrorCode = "nothing_to_call"
	CodeRaiseTooSmall     ErrorCode = "raise_below_minimum"
	CodeTooManyRequests   ErrorCode = "too_many_requests"
	CodeNotEnoughPlayers  ErrorCode = "not_enough_players"
	CodeRoundNotComplete  ErrorCode = "round_not_complete"
	CodeHandInProgress    ErrorCode = "hand_in_progress"
	CodeTableFull         ErrorCode = "table_full"
	CodeSeatTaken         ErrorCode = "seat_taken"
	CodeAlreadySeated     ErrorCode = "already_seated"
)

// ActionError is a user-caused rejection. The table it was raised against is
// left untouched and the caller may retry with a corrected request.
type ActionError struct {
	Code   ErrorCode
	Reason string
}

func (e *ActionError) Error() string {
	return e.Reason
}

// Is matches any ActionError carrying the same code, so callers can compare
// against the exported sentinels with errors.Is.
func (e *ActionError) Is(target error) bool {
	t, ok := target.(*ActionError)
	return ok && t.Code == e.Code
}

// GRPCStatus lets a gRPC handler return the error unchanged.
func (e *ActionError) GRPCStatus() *status.Status {
	var c codes.Code
	switch e.Code {
	case CodePlayerNotFound:
		c = codes.NotFound
	case CodeNotActivePlayer, CodeNotYourTurn:
		c = codes.PermissionDenied
	case CodeInvalidAction, CodeInvalidAmount, CodeRaiseTooSmall, CodeMustCallOrFold, CodeNothingToCall:
		c = codes.InvalidArgument
	case CodeTooManyRequests:
		c = codes.ResourceExhausted
	case CodeTableFull, CodeSeatTaken, CodeAlreadySeated:
		c = codes.AlreadyExists
	default:
		c = codes.FailedPrecondition
	}
	return status.New(c, e.Reason)
}

func actionErrorf(code ErrorCode, format string, args ...interface{}) *ActionError {
	return &ActionError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

var (
	ErrGameNotInProgress = &ActionError{Code: CodeGameNotInProgress, Reason: "game not in progress"}
	ErrPlayerNotFound    = &ActionError{Code: CodePlayerNotFound, Reason: "player not found"}
	ErrNotActivePlayer   = &ActionError{Code: CodeNotActivePlayer, Reason: "not an active player"}
	ErrNotYourTurn       = &ActionError{Code: CodeNotYourTurn, Reason: "not your turn"}
	ErrInvalidAction     = &ActionError{Code: CodeInvalidAction, Reason: "invalid action"}
	ErrInvalidAmount     = &ActionError{Code: CodeInvalidAmount, Reason: "invalid amount"}
	ErrInsufficientChips = &ActionError{Code: CodeInsufficientChips, Reason: "insufficient chips"}
	ErrMustCallOrFold    = &ActionError{Code: CodeMustCallOrFold, Reason: "must call or fold"}
	ErrNothingToCall     = &ActionError{Code: CodeNothingToCall, Reason: "nothing to call, use check"}
	ErrRaiseTooSmall     = &ActionError{Code: CodeRaiseTooSmall, Reason: "raise below minimum"}
	ErrTooManyRequests   = &ActionError{Code: CodeTooManyRequests, Reason: "too many requests"}
	ErrNotEnoughPlayers  = &ActionError{Code: CodeNotEnoughPlayers, Reason: "not enough players"}
	ErrRoundNotComplete  = &ActionError{Code: CodeRoundNotComplete, Reason: "betting round not complete"}
	ErrHandInProgress    = &ActionError{Code: CodeHandInProgress, Reason: "hand in progress"}
	ErrTableFull         = &ActionError{Code: CodeTableFull, Reason: "table is full"}
	ErrSeatTaken         = &ActionError{Code: CodeSeatTaken, Reason: "seat is taken"}
	ErrAlreadySeated     = &ActionError{Code: CodeAlreadySeated, Reason: "player already seated"}
)
