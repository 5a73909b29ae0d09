package errors

import (
	"errors"
	"fmt"
)

// Kinds. Every error returned by a store or a use case wraps exactly one of them.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrBadRequest         = errors.New("bad request")
	ErrIntegration        = errors.New("integration error")
	ErrInvariantViolation = errors.New("invariant violation")
)

var (
	ErrPlayerNotFound     = fmt.Errorf("player %w", ErrNotFound)
	ErrLobbyNotFound      = fmt.Errorf("lobby %w", ErrNotFound)
	ErrStatisticsNotFound = fmt.Errorf("game statistics %w", ErrNotFound)
	ErrTokenNotFound      = fmt.Errorf("token %w", ErrNotFound)

	ErrAlreadyInLobby = fmt.Errorf("%w: player already belongs to another lobby", ErrConflict)
	ErrLobbyFull      = fmt.Errorf("%w: lobby is full", ErrConflict)
	ErrLobbyNotOpen   = fmt.Errorf("%w: lobby is not open", ErrConflict)
	ErrNotHost        = fmt.Errorf("%w: only the lobby host may do this", ErrConflict)
	ErrNotMember      = fmt.Errorf("%w: player is not a member of the lobby", ErrConflict)
	ErrUserExists     = fmt.Errorf("%w: username or email already taken", ErrConflict)
	ErrStaleWrite     = fmt.Errorf("%w: record was modified concurrently", ErrConflict)

	ErrInvalidLobby      = fmt.Errorf("%w: invalid lobby parameters", ErrBadRequest)
	ErrInvalidDifficulty = fmt.Errorf("%w: unknown difficulty", ErrBadRequest)
	ErrInvalidCursor     = fmt.Errorf("%w: malformed cursor", ErrBadRequest)
	ErrInvalidIdentity   = fmt.Errorf("%w: identity needs id, username and email", ErrBadRequest)

	ErrStatisticsUninitialized = fmt.Errorf("%w: game statistics missing while a game is ending", ErrInvariantViolation)
)

// Integration wraps a transport failure of a store or of the event port.
func Integration(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrIntegration, err)
}

// Is and As are re-exported so callers importing this package under the
// name "errors" don't need a second import for the standard helpers.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }
