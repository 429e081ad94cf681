package game

import (
	"errors"
	"fmt"
)

// Validation errors. The board is left unchanged when one of these is returned.
var (
	ErrUnknownCity     = errors.New("unknown city")
	ErrUnknownPlayer   = errors.New("unknown player")
	ErrUnknownAction   = errors.New("unknown action")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrActionFailed    = errors.New("action failed")
	ErrNoActionsLeft   = errors.New("no actions left this turn")
	ErrHandLimit       = errors.New("a player must discard down to the hand limit")
	ErrGameOver        = errors.New("game is already over")
)

var (
	// ErrGameEnded marks a loss condition. Callers must treat the game as finished.
	ErrGameEnded = errors.New("game ended")
	// ErrInvalidOperation marks a broken internal contract, never a player mistake.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrGameNotFound is returned by stores when no game has the requested id.
	ErrGameNotFound = errors.New("game not found")
)

// GameEndedError carries the reason a game was lost.
type GameEndedError struct {
	Reason string
}

func (e *GameEndedError) Error() string {
	return fmt.Sprintf("game ended: %s", e.Reason)
}

// Is makes errors.Is(err, ErrGameEnded) match.
func (e *GameEndedError) Is(target error) bool {
	return target == ErrGameEnded
}

func gameEnded(format string, args ...any) error {
	return &GameEndedError{Reason: fmt.Sprintf(format, args...)}
}

// IsGameEnded reports whether err signals a loss.
func IsGameEnded(err error) bool {
	return errors.Is(err, ErrGameEnded)
}

// IsValidation reports whether err is an ordinary rejected request.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrUnknownCity,
		ErrUnknownPlayer,
		ErrUnknownAction,
		ErrInvalidArgument,
		ErrActionFailed,
		ErrNoActionsLeft,
		ErrHandLimit,
		ErrGameOver,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ErrorCode is the machine readable error kind sent to clients.
type ErrorCode string

const (
	CodeNone             ErrorCode = ""
	CodeUnknownCity      ErrorCode = "UNKNOWN_CITY"
	CodeUnknownPlayer    ErrorCode = "UNKNOWN_PLAYER"
	CodeUnknownAction    ErrorCode = "UNKNOWN_ACTION"
	CodeInvalidArgument  ErrorCode = "INVALID_ARGUMENT"
	CodeActionFailed     ErrorCode = "ACTION_FAILED"
	CodeNoActionsLeft    ErrorCode = "NO_ACTIONS_LEFT"
	CodeHandLimit        ErrorCode = "HAND_LIMIT"
	CodeGameOver         ErrorCode = "GAME_OVER"
	CodeGameEnded        ErrorCode = "GAME_ENDED"
	CodeInvalidOperation ErrorCode = "INVALID_OPERATION"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeInternal         ErrorCode = "INTERNAL"
)

var errorCodes = []struct {
	err  error
	code ErrorCode
}{
	{ErrGameEnded, CodeGameEnded},
	{ErrGameOver, CodeGameOver},
	{ErrUnknownCity, CodeUnknownCity},
	{ErrUnknownPlayer, CodeUnknownPlayer},
	{ErrUnknownAction, CodeUnknownAction},
	{ErrInvalidArgument, CodeInvalidArgument},
	{ErrActionFailed, CodeActionFailed},
	{ErrNoActionsLeft, CodeNoActionsLeft},
	{ErrHandLimit, CodeHandLimit},
	{ErrInvalidOperation, CodeInvalidOperation},
	{ErrGameNotFound, CodeNotFound},
}

// Code maps an error onto its ErrorCode.
func Code(err error) ErrorCode {
	if err == nil {
		return CodeNone
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}
