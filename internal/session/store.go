package session

import (
	"context"
	"fmt"
	"sync"
)

// InMemoryStore implements Store with in-memory storage. Sessions live for
// the lifetime of the process and are never evicted.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*Session),
	}
}

// Get retrieves a session by conversation id. The result is a copy;
// mutations reach the store only through Set.
func (s *InMemoryStore) Get(ctx context.Context, chatID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[chatID]
	if !exists {
		return nil, fmt.Errorf("chat %s: %w", chatID, ErrSessionNotFound)
	}

	copied := *session
	return &copied, nil
}

// Set stores a session, replacing any previous record for the same id.
func (s *InMemoryStore) Set(ctx context.Context, session *Session) error {
	if session == nil || session.ChatID == "" {
		return fmt.Errorf("session with chat id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ChatID] = session
	return nil
}

// Clear removes a session. Clearing an absent session is not an error.
func (s *InMemoryStore) Clear(ctx context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, chatID)
	return nil
}
