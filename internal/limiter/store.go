package limiter

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// InMemoryStore implements UsageStore with in-memory storage.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*UsageRecord
}

// NewInMemoryStore creates a new in-memory usage store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]*UsageRecord),
	}
}

// GetUsage retrieves the usage record for a conversation. Conversations
// without a record get a zero-value one.
func (s *InMemoryStore) GetUsage(ctx context.Context, chatID string) (*UsageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[chatID]
	if !exists {
		return &UsageRecord{ChatID: chatID}, nil
	}

	copied := *record
	return &copied, nil
}

// IncrementUsage charges one generation against a conversation.
func (s *InMemoryStore) IncrementUsage(ctx context.Context, chatID string) error {
	if chatID == "" {
		return fmt.Errorf("chat id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[chatID]
	if !exists {
		record = &UsageRecord{ChatID: chatID}
		s.records[chatID] = record
	}
	record.Used++
	record.UpdatedAt = time.Now()
	return nil
}

// AddBonus grants n extra generations to a conversation.
func (s *InMemoryStore) AddBonus(ctx context.Context, chatID string, n int) error {
	if chatID == "" {
		return fmt.Errorf("chat id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[chatID]
	if !exists {
		record = &UsageRecord{ChatID: chatID}
		s.records[chatID] = record
	}
	record.Bonus += n
	record.UpdatedAt = time.Now()
	return nil
}
