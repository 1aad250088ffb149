package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreGetMissing(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestInMemoryStoreSetGet(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	sess := &Session{
		ChatID: "chat-1",
		Lang:   LangUK,
		Step:   AwaitingStoryTopic{},
	}
	require.NoError(t, store.Set(ctx, sess))

	got, err := store.Get(ctx, "chat-1")
	require.NoError(t, err)
	assert.Equal(t, LangUK, got.Lang)
	assert.IsType(t, AwaitingStoryTopic{}, got.Step)
}

func TestInMemoryStoreSetReplaces(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, &Session{ChatID: "chat-1", Lang: LangUK, Step: AwaitingRiddleAge{}}))
	require.NoError(t, store.Set(ctx, &Session{ChatID: "chat-1", Lang: LangEN}))

	got, err := store.Get(ctx, "chat-1")
	require.NoError(t, err)
	assert.Equal(t, LangEN, got.Lang)
	assert.Nil(t, got.Step)
}

func TestInMemoryStoreGetReturnsCopy(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, &Session{ChatID: "chat-1", Lang: LangUK, Step: AwaitingStoryTopic{}}))

	first, err := store.Get(ctx, "chat-1")
	require.NoError(t, err)
	first.Lang = LangEN
	first.Step = nil

	second, err := store.Get(ctx, "chat-1")
	require.NoError(t, err)
	assert.Equal(t, LangUK, second.Lang)
	assert.IsType(t, AwaitingStoryTopic{}, second.Step)
}

func TestInMemoryStoreSetValidation(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	assert.Error(t, store.Set(ctx, nil))
	assert.Error(t, store.Set(ctx, &Session{}))
}

func TestInMemoryStoreClearAbsent(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	assert.NoError(t, store.Clear(ctx, "never-seen"))

	require.NoError(t, store.Set(ctx, &Session{ChatID: "chat-1", Lang: LangUK}))
	require.NoError(t, store.Clear(ctx, "chat-1"))
	_, err := store.Get(ctx, "chat-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStepRoundTrip(t *testing.T) {
	steps := []Step{
		AwaitingStoryTopic{},
		AwaitingVoiceChoice{Story: "казка про лиса", Lang: LangUK},
		AwaitingStyleChoice{Story: "a story", Voice: VoiceMale, Lang: LangEN},
		AwaitingRiddleAge{},
	}

	for _, step := range steps {
		t.Run(step.StepName(), func(t *testing.T) {
			name, payload, err := marshalStep(step)
			require.NoError(t, err)
			assert.Equal(t, step.StepName(), name)

			got, err := unmarshalStep(name, payload)
			require.NoError(t, err)
			assert.Equal(t, step, got)
		})
	}
}

func TestMarshalNilStep(t *testing.T) {
	name, payload, err := marshalStep(nil)
	require.NoError(t, err)
	assert.Empty(t, name)
	assert.Empty(t, payload)

	step, err := unmarshalStep("", "")
	require.NoError(t, err)
	assert.Nil(t, step)
}

func TestUnmarshalUnknownStep(t *testing.T) {
	_, err := unmarshalStep("awaiting_unicorn", "{}")
	assert.Error(t, err)
}

func TestUnmarshalEmptyPayload(t *testing.T) {
	step, err := unmarshalStep(StepNameVoiceChoice, "")
	require.NoError(t, err)
	assert.Equal(t, AwaitingVoiceChoice{}, step)
}

func TestSessionStepName(t *testing.T) {
	sess := &Session{ChatID: "chat-1", Lang: LangUK}
	assert.Equal(t, "idle", sess.StepName())

	sess.Step = AwaitingStyleChoice{}
	assert.Equal(t, StepNameStyleChoice, sess.StepName())
}

func TestLanguageValid(t *testing.T) {
	assert.True(t, LangUK.Valid())
	assert.True(t, LangEN.Valid())
	assert.False(t, Language("de").Valid())
	assert.False(t, Language("").Valid())
}
