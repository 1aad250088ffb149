package invite

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ReferralStore records accepted invite referrals.
type ReferralStore interface {
	RecordReferral(ctx context.Context, referrerID, inviteeID string) error
	HasInvitee(ctx context.Context, inviteeID string) (bool, error)
}

// InMemoryStore implements ReferralStore with in-memory storage.
type InMemoryStore struct {
	mu       sync.RWMutex
	invitees map[string]string // invitee id -> referrer id
}

// NewInMemoryStore creates a new in-memory referral store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		invitees: make(map[string]string),
	}
}

// RecordReferral stores one referral.
func (s *InMemoryStore) RecordReferral(ctx context.Context, referrerID, inviteeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invitees[inviteeID]; exists {
		return fmt.Errorf("invitee %s is already referred", inviteeID)
	}
	s.invitees[inviteeID] = referrerID
	return nil
}

// HasInvitee reports whether the invitee was already referred.
func (s *InMemoryStore) HasInvitee(ctx context.Context, inviteeID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.invitees[inviteeID]
	return exists, nil
}

// ReferralSchema represents the invites table schema.
type ReferralSchema struct {
	bun.BaseModel `bun:"table:invites,alias:inv"`

	ID         string    `bun:"id,pk,type:uuid" json:"id"`
	ReferrerID string    `bun:"referrer_id,notnull" json:"referrer_id"`
	InviteeID  string    `bun:"invitee_id,notnull,unique" json:"invitee_id"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// PostgresStore implements ReferralStore with PostgreSQL storage.
type PostgresStore struct {
	db *bun.DB
}

// NewPostgresStore creates a new PostgreSQL referral store.
func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{
		db: db,
	}
}

// CreateTables creates the tables used by the referral store.
func CreateTables(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*ReferralSchema)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create table for model %T: %w", (*ReferralSchema)(nil), err)
	}
	return nil
}

// RecordReferral stores one referral.
func (s *PostgresStore) RecordReferral(ctx context.Context, referrerID, inviteeID string) error {
	schema := &ReferralSchema{
		ID:         uuid.New().String(),
		ReferrerID: referrerID,
		InviteeID:  inviteeID,
		CreatedAt:  time.Now(),
	}

	_, err := s.db.NewInsert().
		Model(schema).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to record referral: %w", err)
	}
	return nil
}

// HasInvitee reports whether the invitee was already referred.
func (s *PostgresStore) HasInvitee(ctx context.Context, inviteeID string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*ReferralSchema)(nil)).
		Where("invitee_id = ?", inviteeID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check invitee: %w", err)
	}
	return exists, nil
}
