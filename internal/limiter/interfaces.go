package limiter

import "context"

// UsageStore defines the interface for usage ledger storage. A conversation
// with no ledger row has a zero-value record.
type UsageStore interface {
	GetUsage(ctx context.Context, chatID string) (*UsageRecord, error)
	IncrementUsage(ctx context.Context, chatID string) error
	AddBonus(ctx context.Context, chatID string, n int) error
}
