package invite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingGranter struct {
	grants map[string]int
}

func newRecordingGranter() *recordingGranter {
	return &recordingGranter{grants: make(map[string]int)}
}

func (g *recordingGranter) AddBonus(ctx context.Context, chatID string, n int) error {
	g.grants[chatID] += n
	return nil
}

func newTestService(t *testing.T) (*Service, *recordingGranter) {
	t.Helper()
	granter := newRecordingGranter()
	svc, err := NewService(NewInMemoryStore(), granter, "kazka_bot", zap.NewNop())
	require.NoError(t, err)
	return svc, granter
}

func TestInviteLink(t *testing.T) {
	svc, _ := newTestService(t)

	assert.Equal(t, "https://t.me/kazka_bot?start=invite_chat-1", svc.InviteLink("chat-1"))
}

func TestHandleInviteGrantsBothSides(t *testing.T) {
	svc, granter := newTestService(t)

	err := svc.HandleInvite(context.Background(), "invitee", "referrer")
	require.NoError(t, err)

	assert.Equal(t, referrerBonus, granter.grants["referrer"])
	assert.Equal(t, inviteeBonus, granter.grants["invitee"])
}

func TestHandleInviteIsIdempotentPerInvitee(t *testing.T) {
	svc, granter := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.HandleInvite(ctx, "invitee", "referrer"))
	require.NoError(t, svc.HandleInvite(ctx, "invitee", "referrer"))
	require.NoError(t, svc.HandleInvite(ctx, "invitee", "другий"))

	assert.Equal(t, referrerBonus, granter.grants["referrer"])
	assert.Equal(t, inviteeBonus, granter.grants["invitee"])
	assert.Zero(t, granter.grants["другий"])
}

func TestHandleInviteRejectsSelfReferral(t *testing.T) {
	svc, granter := newTestService(t)

	err := svc.HandleInvite(context.Background(), "chat-1", "chat-1")
	assert.Error(t, err)
	assert.Empty(t, granter.grants)
}

func TestHandleInviteValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	assert.Error(t, svc.HandleInvite(ctx, "", "referrer"))
	assert.Error(t, svc.HandleInvite(ctx, "invitee", ""))
}

func TestNewServiceValidation(t *testing.T) {
	granter := newRecordingGranter()

	_, err := NewService(nil, granter, "kazka_bot", zap.NewNop())
	assert.Error(t, err)

	_, err = NewService(NewInMemoryStore(), nil, "kazka_bot", zap.NewNop())
	assert.Error(t, err)

	_, err = NewService(NewInMemoryStore(), granter, "", zap.NewNop())
	assert.Error(t, err)
}

func TestInMemoryStoreRejectsDuplicateInvitee(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.RecordReferral(ctx, "referrer", "invitee"))
	assert.Error(t, store.RecordReferral(ctx, "another", "invitee"))

	referred, err := store.HasInvitee(ctx, "invitee")
	require.NoError(t, err)
	assert.True(t, referred)
}
