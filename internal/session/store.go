package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for an unknown session id. Callers
// treat it as "start a fresh session", never as a hard failure.
var ErrNotFound = errors.New("session not found")

// Store is a passive keyed container for session state. Serialization
// of turns on one session is the engine's job (see Locker), not the
// store's.
type Store interface {
	Get(ctx context.Context, sessionID string) (*State, error)
	Put(ctx context.Context, state *State) error
	Delete(ctx context.Context, sessionID string) error
	ListForUser(ctx context.Context, userID string) ([]*State, error)
}
