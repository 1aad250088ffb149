package invite

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	// Bonus generations granted when a referral is accepted.
	referrerBonus = 5
	inviteeBonus  = 3
)

// BonusGranter grants extra generations on the usage ledger.
type BonusGranter interface {
	AddBonus(ctx context.Context, chatID string, n int) error
}

// Service generates invite deep links and records accepted referrals,
// granting bonus generations to both sides.
type Service struct {
	store    ReferralStore
	bonuses  BonusGranter
	username string
	logger   *zap.Logger
}

// NewService creates a new invite service. The bot username anchors the deep
// link the invitee opens.
func NewService(store ReferralStore, bonuses BonusGranter, username string, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("referral store cannot be nil")
	}
	if bonuses == nil {
		return nil, fmt.Errorf("bonus granter cannot be nil")
	}
	if username == "" {
		return nil, fmt.Errorf("bot username is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		bonuses:  bonuses,
		username: username,
		logger:   logger,
	}, nil
}

// InviteLink returns the deep link a user shares with friends.
func (s *Service) InviteLink(chatID string) string {
	return fmt.Sprintf("https://t.me/%s?start=invite_%s", s.username, chatID)
}

// HandleInvite records a new user arriving through a referral link and
// grants bonus generations to both conversations. A user can be referred at
// most once; repeated deep-link opens are ignored.
func (s *Service) HandleInvite(ctx context.Context, chatID, referrerID string) error {
	if chatID == "" || referrerID == "" {
		return fmt.Errorf("chat id and referrer id are required")
	}
	if chatID == referrerID {
		return fmt.Errorf("self-referral is not allowed")
	}

	referred, err := s.store.HasInvitee(ctx, chatID)
	if err != nil {
		return fmt.Errorf("failed to check referral: %w", err)
	}
	if referred {
		return nil
	}

	if err := s.store.RecordReferral(ctx, referrerID, chatID); err != nil {
		return fmt.Errorf("failed to record referral: %w", err)
	}

	if err := s.bonuses.AddBonus(ctx, referrerID, referrerBonus); err != nil {
		return fmt.Errorf("failed to grant referrer bonus: %w", err)
	}
	if err := s.bonuses.AddBonus(ctx, chatID, inviteeBonus); err != nil {
		return fmt.Errorf("failed to grant invitee bonus: %w", err)
	}

	s.logger.Info("referral recorded",
		zap.String("referrer_id", referrerID),
		zap.String("invitee_id", chatID))
	return nil
}
