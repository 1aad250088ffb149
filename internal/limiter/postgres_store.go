package limiter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// PostgresStore implements UsageStore with a PostgreSQL usage ledger.
type PostgresStore struct {
	db *bun.DB
}

// NewPostgresStore creates a new PostgreSQL usage store.
func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{
		db: db,
	}
}

// UsageSchema represents the usage_records table schema.
type UsageSchema struct {
	bun.BaseModel `bun:"table:usage_records,alias:ur"`

	ChatID    string    `bun:"chat_id,pk" json:"chat_id"`
	Used      int       `bun:"used,notnull,default:0" json:"used"`
	Bonus     int       `bun:"bonus,notnull,default:0" json:"bonus"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// CreateTables creates the tables used by the usage ledger.
func CreateTables(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*UsageSchema)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create table for model %T: %w", (*UsageSchema)(nil), err)
	}
	return nil
}

// GetUsage retrieves the usage record for a conversation. Conversations
// without a ledger row get a zero-value record.
func (s *PostgresStore) GetUsage(ctx context.Context, chatID string) (*UsageRecord, error) {
	var schema UsageSchema
	err := s.db.NewSelect().
		Model(&schema).
		Where("chat_id = ?", chatID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &UsageRecord{ChatID: chatID}, nil
		}
		return nil, fmt.Errorf("failed to get usage record: %w", err)
	}

	return &UsageRecord{
		ChatID:    schema.ChatID,
		Used:      schema.Used,
		Bonus:     schema.Bonus,
		UpdatedAt: schema.UpdatedAt,
	}, nil
}

// IncrementUsage charges one generation against a conversation.
func (s *PostgresStore) IncrementUsage(ctx context.Context, chatID string) error {
	if chatID == "" {
		return fmt.Errorf("chat id is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_records (chat_id, used, bonus, updated_at)
		VALUES (?, 1, 0, ?)
		ON CONFLICT (chat_id) DO UPDATE
		SET used = usage_records.used + 1, updated_at = EXCLUDED.updated_at
	`, chatID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}

// AddBonus grants n extra generations to a conversation.
func (s *PostgresStore) AddBonus(ctx context.Context, chatID string, n int) error {
	if chatID == "" {
		return fmt.Errorf("chat id is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_records (chat_id, used, bonus, updated_at)
		VALUES (?, 0, ?, ?)
		ON CONFLICT (chat_id) DO UPDATE
		SET bonus = usage_records.bonus + EXCLUDED.bonus, updated_at = EXCLUDED.updated_at
	`, chatID, n, time.Now())
	if err != nil {
		return fmt.Errorf("failed to add bonus: %w", err)
	}
	return nil
}
