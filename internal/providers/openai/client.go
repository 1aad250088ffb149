package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kazka/kazka-bot/internal/dialog"
	"github.com/kazka/kazka-bot/internal/session"
)

const (
	defaultModel         = openai.GPT4o
	defaultStoryMinChars = 1450
	defaultStoryMaxChars = 1650

	storyMaxTokens   = 1200
	riddleMaxTokens  = 400
	phraseMaxTokens  = 200
	translateMaxTok  = 100
	storyTemperature = 0.85
)

// Config carries the text provider settings.
type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	StoryMinChars int
	StoryMaxChars int
}

// Client generates stories, riddles and creative phrases through the OpenAI
// chat completions API. It is stateless: each call is one request/response
// exchange.
type Client struct {
	api      *openai.Client
	model    string
	minChars int
	maxChars int
	logger   *zap.Logger
}

// NewClient creates a new text provider client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.StoryMinChars <= 0 {
		cfg.StoryMinChars = defaultStoryMinChars
	}
	if cfg.StoryMaxChars <= 0 {
		cfg.StoryMaxChars = defaultStoryMaxChars
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	apiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiConfig.BaseURL = cfg.BaseURL
	}

	return &Client{
		api:      openai.NewClientWithConfig(apiConfig),
		model:    cfg.Model,
		minChars: cfg.StoryMinChars,
		maxChars: cfg.StoryMaxChars,
		logger:   logger,
	}, nil
}

// storyPayload is the strict JSON schema the model is instructed to return.
type storyPayload struct {
	Story     string   `json:"story"`
	Moral     string   `json:"moral"`
	Questions []string `json:"questions"`
}

// GenerateStory asks for a fairy tale on the given topic and validates the
// structured result: valid JSON, all fields present, four questions, and a
// narrative within the configured character bounds. Anything else is a
// provider error and the caller must not charge usage for it.
func (c *Client) GenerateStory(ctx context.Context, topic string, lang session.Language) (dialog.Story, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: storyPrompt(topic, lang, c.minChars, c.maxChars)},
		},
		MaxTokens:        storyMaxTokens,
		Temperature:      storyTemperature,
		PresencePenalty:  0.3,
		FrequencyPenalty: 0.2,
	})
	if err != nil {
		return dialog.Story{}, fmt.Errorf("story completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return dialog.Story{}, fmt.Errorf("story completion returned no choices")
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)

	var payload storyPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		c.logger.Warn("model returned invalid story JSON", zap.String("raw", truncate(raw, 300)))
		return dialog.Story{}, fmt.Errorf("model returned invalid JSON: %w", err)
	}

	story := strings.TrimSpace(payload.Story)
	moral := strings.TrimSpace(payload.Moral)
	length := utf8.RuneCountInString(story)

	if length > c.maxChars {
		return dialog.Story{}, fmt.Errorf("story is too long: %d chars (max %d)", length, c.maxChars)
	}
	if length < c.minChars {
		return dialog.Story{}, fmt.Errorf("story is too short: %d chars (min %d)", length, c.minChars)
	}
	if moral == "" {
		return dialog.Story{}, fmt.Errorf("story is missing a moral")
	}
	if len(payload.Questions) != 4 {
		return dialog.Story{}, fmt.Errorf("story has %d questions, want 4", len(payload.Questions))
	}

	result := dialog.Story{Text: story, Moral: moral}
	copy(result.Questions[:], payload.Questions)
	return result, nil
}

// GenerateRiddles asks for five riddles for the given age bracket.
func (c *Client) GenerateRiddles(ctx context.Context, age string, lang session.Language) (string, error) {
	return c.completion(ctx, riddlePrompt(age, lang), riddleMaxTokens)
}

// GeneratePhrases asks for five unfinished creative phrases.
func (c *Client) GeneratePhrases(ctx context.Context, lang session.Language) (string, error) {
	return c.completion(ctx, phrasePrompt(lang), phraseMaxTokens)
}

// Translate renders text into short English suitable for an image prompt.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "Translate the following text to English, keep it short and suitable for an image generation prompt."},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		MaxTokens: translateMaxTok,
	})
	if err != nil {
		return "", fmt.Errorf("translation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("translation returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) completion(ctx context.Context, systemPrompt string, maxTokens int) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
