package limiter

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const defaultFreeGenerations = 10

// Service answers whether a conversation may run another paid generation and
// records consumption. Total quota is the configured free allowance plus any
// granted bonus generations.
type Service struct {
	store     UsageStore
	freeLimit int
	logger    *zap.Logger
}

// NewService creates a new usage limiter service.
func NewService(store UsageStore, freeLimit int, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("usage store cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if freeLimit <= 0 {
		freeLimit = defaultFreeGenerations
	}
	return &Service{
		store:     store,
		freeLimit: freeLimit,
		logger:    logger,
	}, nil
}

// CheckLimit reports whether the conversation may run another generation.
// Denied requests are not queued or retried.
func (s *Service) CheckLimit(ctx context.Context, chatID string) (Quota, error) {
	if chatID == "" {
		return Quota{}, fmt.Errorf("chat id is required")
	}

	record, err := s.store.GetUsage(ctx, chatID)
	if err != nil {
		return Quota{}, fmt.Errorf("failed to check limit: %w", err)
	}

	total := s.freeLimit + record.Bonus
	remaining := total - record.Used
	if remaining < 0 {
		remaining = 0
	}

	return Quota{
		Allowed:   remaining > 0,
		Remaining: remaining,
		Total:     total,
	}, nil
}

// IncrementUsage charges one generation against the conversation. The
// controller calls this only after a successful story text generation.
func (s *Service) IncrementUsage(ctx context.Context, chatID string) error {
	if chatID == "" {
		return fmt.Errorf("chat id is required")
	}

	if err := s.store.IncrementUsage(ctx, chatID); err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}

	s.logger.Debug("usage incremented", zap.String("chat_id", chatID))
	return nil
}

// AddBonus grants n extra generations, e.g. for invite referrals.
func (s *Service) AddBonus(ctx context.Context, chatID string, n int) error {
	if chatID == "" {
		return fmt.Errorf("chat id is required")
	}
	if n <= 0 {
		return fmt.Errorf("bonus must be positive, got %d", n)
	}

	if err := s.store.AddBonus(ctx, chatID, n); err != nil {
		return fmt.Errorf("failed to add bonus: %w", err)
	}

	s.logger.Info("bonus generations granted", zap.String("chat_id", chatID), zap.Int("bonus", n))
	return nil
}
