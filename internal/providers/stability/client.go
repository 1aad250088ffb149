package stability

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"resty.dev/v3"
)

const (
	defaultBaseURL  = "https://api.stability.ai"
	defaultModel    = "sd3.5-large-turbo"
	generatePath    = "/v2beta/stable-image/generate/sd3"
	maxPromptLength = 300
)

var (
	cyrillicRe    = regexp.MustCompile(`[а-яА-ЯіІїЇєЄґҐ]`)
	promptCleanRe = regexp.MustCompile(`[^\w\s.,!?'"-]`)
)

// Translator renders a prompt into English before image generation. The
// Stability models work best with English prompts, so Cyrillic input is
// translated first.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Config carries the image provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client generates illustrations through the Stability image API.
type Client struct {
	http       *resty.Client
	apiKey     string
	model      string
	translator Translator
	logger     *zap.Logger
}

// NewClient creates a new image provider client. The translator is optional;
// without it Cyrillic prompts are sent as-is.
func NewClient(cfg Config, translator Translator, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("stability api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		http:       resty.New().SetBaseURL(cfg.BaseURL),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		translator: translator,
		logger:     logger,
	}, nil
}

// Close releases the underlying HTTP client.
func (c *Client) Close() error {
	return c.http.Close()
}

// GenerateImage produces a PNG for the prompt. The API may answer with raw
// image bytes or with a JSON object carrying a base64 image; anything else
// is a provider error.
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	prompt, err := c.preparePrompt(ctx, prompt)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.apiKey).
		SetHeader("Accept", "image/*").
		SetMultipartFormData(map[string]string{
			"model":         c.model,
			"prompt":        prompt,
			"output_format": "png",
		}).
		Post(generatePath)
	if err != nil {
		return nil, fmt.Errorf("image request failed: %w", err)
	}

	body := resp.Bytes()
	if resp.IsError() {
		return nil, fmt.Errorf("image generation failed: status %d: %s", resp.StatusCode(), preview(body))
	}

	contentType := resp.Header().Get("Content-Type")
	if strings.HasPrefix(contentType, "image/") {
		return body, nil
	}

	// Some deployments answer JSON with an embedded base64 image.
	var payload struct {
		Image string `json:"image"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Image == "" {
		return nil, fmt.Errorf("image generation returned %q response without image data", contentType)
	}
	image, err := base64.StdEncoding.DecodeString(payload.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}
	return image, nil
}

// preparePrompt translates Cyrillic prompts to English and sanitizes the
// result for the image API: punctuation outside a small allowed set is
// stripped and the prompt is capped at 300 characters.
func (c *Client) preparePrompt(ctx context.Context, prompt string) (string, error) {
	if !cyrillicRe.MatchString(prompt) || c.translator == nil {
		return prompt, nil
	}

	translated, err := c.translator.Translate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("prompt translation failed: %w", err)
	}

	cleaned := CleanPrompt(translated)
	c.logger.Debug("prompt translated for image generation",
		zap.String("original", prompt),
		zap.String("prompt", cleaned))
	return cleaned, nil
}

// CleanPrompt strips characters the image API rejects and caps the length.
func CleanPrompt(prompt string) string {
	cleaned := promptCleanRe.ReplaceAllString(prompt, "")
	if len(cleaned) > maxPromptLength {
		cleaned = cleaned[:maxPromptLength]
	}
	return cleaned
}

func preview(body []byte) string {
	if len(body) > 300 {
		body = body[:300]
	}
	return string(body)
}
