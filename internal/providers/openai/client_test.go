package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// completionServer fakes the chat completions endpoint, returning the
// configured content as the single choice.
func completionServer(t *testing.T, content *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), "unexpected path %s", r.URL.Path)

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": *content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Config{
		APIKey:        "test-key",
		BaseURL:       baseURL + "/v1",
		StoryMinChars: 10,
		StoryMaxChars: 200,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func validStoryJSON(t *testing.T, text string) string {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"story":     text,
		"moral":     "Доброта завжди перемагає.",
		"questions": []string{"Хто?", "Що?", "Де?", "Чому?"},
	})
	require.NoError(t, err)
	return string(raw)
}

func TestGenerateStory(t *testing.T) {
	text := "Жив собі маленький їжачок, який мріяв побачити море."
	content := validStoryJSON(t, text)
	ts := completionServer(t, &content)
	defer ts.Close()

	client := newTestClient(t, ts.URL)

	story, err := client.GenerateStory(context.Background(), "їжачок", "uk")
	require.NoError(t, err)
	assert.Equal(t, text, story.Text)
	assert.Equal(t, "Доброта завжди перемагає.", story.Moral)
	assert.Equal(t, "Чому?", story.Questions[3])
}

func TestGenerateStoryInvalidJSON(t *testing.T) {
	content := "Once upon a time, plain prose instead of JSON."
	ts := completionServer(t, &content)
	defer ts.Close()

	client := newTestClient(t, ts.URL)

	_, err := client.GenerateStory(context.Background(), "topic", "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestGenerateStoryTooShort(t *testing.T) {
	content := validStoryJSON(t, "Коротко.")
	ts := completionServer(t, &content)
	defer ts.Close()

	client := newTestClient(t, ts.URL)

	_, err := client.GenerateStory(context.Background(), "topic", "uk")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too short")
}

func TestGenerateStoryTooLong(t *testing.T) {
	content := validStoryJSON(t, strings.Repeat("а", 201))
	ts := completionServer(t, &content)
	defer ts.Close()

	client := newTestClient(t, ts.URL)

	_, err := client.GenerateStory(context.Background(), "topic", "uk")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too long")
}

func TestGenerateStoryMissingMoral(t *testing.T) {
	raw, err := json.Marshal(map[string]any{
		"story":     strings.Repeat("а", 50),
		"moral":     "  ",
		"questions": []string{"1", "2", "3", "4"},
	})
	require.NoError(t, err)
	content := string(raw)
	ts := completionServer(t, &content)
	defer ts.Close()

	client := newTestClient(t, ts.URL)

	_, err = client.GenerateStory(context.Background(), "topic", "uk")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "moral")
}

func TestGenerateStoryWrongQuestionCount(t *testing.T) {
	raw, err := json.Marshal(map[string]any{
		"story":     strings.Repeat("а", 50),
		"moral":     "Мудрість.",
		"questions": []string{"1", "2"},
	})
	require.NoError(t, err)
	content := string(raw)
	ts := completionServer(t, &content)
	defer ts.Close()

	client := newTestClient(t, ts.URL)

	_, err = client.GenerateStory(context.Background(), "topic", "uk")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "questions")
}

func TestStoryLengthCountsRunesNotBytes(t *testing.T) {
	// 150 Cyrillic runes are 300 bytes; the bound is on runes.
	content := validStoryJSON(t, strings.Repeat("и", 150))
	ts := completionServer(t, &content)
	defer ts.Close()

	client := newTestClient(t, ts.URL)

	_, err := client.GenerateStory(context.Background(), "topic", "uk")
	assert.NoError(t, err)
}

func TestGenerateRiddles(t *testing.T) {
	content := "1. Загадка про сонце"
	ts := completionServer(t, &content)
	defer ts.Close()

	client := newTestClient(t, ts.URL)

	riddles, err := client.GenerateRiddles(context.Background(), "5-6", "uk")
	require.NoError(t, err)
	assert.Equal(t, content, riddles)
}

func TestTranslate(t *testing.T) {
	content := "a brave fox in the forest"
	ts := completionServer(t, &content)
	defer ts.Close()

	client := newTestClient(t, ts.URL)

	got, err := client.Translate(context.Background(), "хоробрий лис у лісі")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{}, zap.NewNop())
	assert.Error(t, err)
}
