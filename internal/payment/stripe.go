package payment

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"resty.dev/v3"
)

const defaultBaseURL = "https://api.stripe.com"

// Config carries the payment link settings.
type Config struct {
	SecretKey  string
	BaseURL    string
	Amount     int // major currency units
	Currency   string
	SuccessURL string
	CancelURL  string
}

// StripeClient creates one-off checkout sessions. Webhook processing is
// handled elsewhere; this adapter only produces the link.
type StripeClient struct {
	http       *resty.Client
	secretKey  string
	amount     int
	currency   string
	successURL string
	cancelURL  string
	logger     *zap.Logger
}

// NewStripeClient creates a new payment link client.
func NewStripeClient(cfg Config, logger *zap.Logger) (*StripeClient, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Amount <= 0 {
		return nil, fmt.Errorf("payment amount must be positive, got %d", cfg.Amount)
	}
	if cfg.Currency == "" {
		cfg.Currency = "uah"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &StripeClient{
		http:       resty.New().SetBaseURL(cfg.BaseURL),
		secretKey:  cfg.SecretKey,
		amount:     cfg.Amount,
		currency:   cfg.Currency,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		logger:     logger,
	}, nil
}

// Close releases the underlying HTTP client.
func (c *StripeClient) Close() error {
	return c.http.Close()
}

// CreatePaymentLink creates a checkout session tagged with the conversation
// id and returns its URL.
func (c *StripeClient) CreatePaymentLink(ctx context.Context, chatID string) (string, error) {
	var result struct {
		URL string `json:"url"`
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.secretKey).
		SetFormData(map[string]string{
			"mode":                   "payment",
			"payment_method_types[0]": "card",
			"line_items[0][price_data][currency]":                  c.currency,
			"line_items[0][price_data][product_data][name]":        "Premium Access",
			"line_items[0][price_data][unit_amount]":               strconv.Itoa(c.amount * 100),
			"line_items[0][quantity]":                              "1",
			"success_url":                                          c.successURL,
			"cancel_url":                                           c.cancelURL,
			"metadata[chatId]":                                     chatID,
		}).
		SetResult(&result).
		Post("/v1/checkout/sessions")
	if err != nil {
		return "", fmt.Errorf("checkout session request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("checkout session failed: status %d", resp.StatusCode())
	}
	if result.URL == "" {
		return "", fmt.Errorf("checkout session response has no url")
	}

	c.logger.Info("payment link created", zap.String("chat_id", chatID))
	return result.URL, nil
}

// StaticProvider hands out a preconfigured payment link. Used when no Stripe
// key is configured.
type StaticProvider struct {
	url string
}

// NewStaticProvider creates a static payment link provider.
func NewStaticProvider(url string) *StaticProvider {
	return &StaticProvider{url: url}
}

// CreatePaymentLink returns the configured link.
func (p *StaticProvider) CreatePaymentLink(ctx context.Context, chatID string) (string, error) {
	if p.url == "" {
		return "", fmt.Errorf("no payment link configured")
	}
	return p.url, nil
}
