package session

import (
	"context"
	"errors"
)

// ErrSessionNotFound is returned by Store.Get when no session exists for a
// conversation id.
var ErrSessionNotFound = errors.New("session not found")

// Store defines the interface for session storage operations. Implementations
// guarantee read-your-writes within a single conversation id; no ordering is
// required across distinct conversation ids.
type Store interface {
	Get(ctx context.Context, chatID string) (*Session, error)
	Set(ctx context.Context, session *Session) error
	Clear(ctx context.Context, chatID string) error
}
