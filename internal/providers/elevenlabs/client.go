package elevenlabs

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"resty.dev/v3"

	"github.com/kazka/kazka-bot/internal/session"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	defaultModelID = "eleven_multilingual_v2"
)

// DefaultVoices maps "<lang>_<voice>" keys to voice ids. Neutral voices are
// deliberately absent: requesting one is a configuration error until an
// operator adds a mapping.
var DefaultVoices = map[string]string{
	"uk_female": "EXAVITQu4vr4xnSDxMaL",
	"uk_male":   "ErXwobaYiN019PkySvjV",
	"en_female": "MF3mGyEYCl7XYWbV9V6O",
	"en_male":   "pNInz6obpgDQGcFmaJgB",
}

// VoiceMappingError reports a (lang, voice) pair with no configured voice id.
// It is a configuration fault, not a transient one, and must not be retried.
type VoiceMappingError struct {
	Lang  session.Language
	Voice session.Voice
}

func (e *VoiceMappingError) Error() string {
	return fmt.Sprintf("no voice mapping for %s_%s", e.Lang, e.Voice)
}

// Permanent marks the error as non-retryable.
func (e *VoiceMappingError) Permanent() bool { return true }

// Config carries the speech provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	ModelID string
	// Voices maps "<lang>_<voice>" to a voice id; nil selects DefaultVoices.
	Voices map[string]string
}

// Client synthesizes narration audio through the ElevenLabs text-to-speech
// API.
type Client struct {
	http    *resty.Client
	apiKey  string
	modelID string
	voices  map[string]string
	logger  *zap.Logger
}

// NewClient creates a new speech provider client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("elevenlabs api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.ModelID == "" {
		cfg.ModelID = defaultModelID
	}
	if cfg.Voices == nil {
		cfg.Voices = DefaultVoices
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		http:    resty.New().SetBaseURL(cfg.BaseURL),
		apiKey:  cfg.APIKey,
		modelID: cfg.ModelID,
		voices:  cfg.Voices,
		logger:  logger,
	}, nil
}

// Close releases the underlying HTTP client.
func (c *Client) Close() error {
	return c.http.Close()
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           string  `json:"style,omitempty"`
}

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// GenerateAudio synthesizes the text with the voice mapped from the
// (lang, voice) pair. A missing mapping yields a VoiceMappingError.
func (c *Client) GenerateAudio(ctx context.Context, text string, voice session.Voice, lang session.Language, style session.Style) ([]byte, error) {
	voiceKey := string(lang) + "_" + string(voice)
	voiceID, ok := c.voices[voiceKey]
	if !ok {
		return nil, &VoiceMappingError{Lang: lang, Voice: voice}
	}

	settings := voiceSettings{
		Stability:       0.5,
		SimilarityBoost: 0.5,
	}
	// Ukrainian voices don't support style hints, and the default style is
	// never sent explicitly.
	if lang != session.LangUK && (style == session.StyleEmotional || style == session.StyleNarration) {
		settings.Style = string(style)
	}

	c.logger.Debug("synthesizing narration",
		zap.String("voice_id", voiceID),
		zap.String("style", string(style)),
		zap.Int("text_length", len(text)))

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("xi-api-key", c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(speechRequest{
			Text:          text,
			ModelID:       c.modelID,
			VoiceSettings: settings,
		}).
		Post("/v1/text-to-speech/" + voiceID)
	if err != nil {
		return nil, fmt.Errorf("speech request failed: %w", err)
	}

	body := resp.Bytes()
	if resp.IsError() {
		return nil, fmt.Errorf("audio generation failed: status %d: %s", resp.StatusCode(), preview(body))
	}
	return body, nil
}

func preview(body []byte) string {
	if len(body) > 300 {
		body = body[:300]
	}
	return string(body)
}
