package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreatePaymentLink(t *testing.T) {
	var gotForm map[string]string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"mode":        r.FormValue("mode"),
			"unit_amount": r.FormValue("line_items[0][price_data][unit_amount]"),
			"currency":    r.FormValue("line_items[0][price_data][currency]"),
			"chat_id":     r.FormValue("metadata[chatId]"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"https://checkout.stripe.com/pay/cs_test"}`))
	}))
	defer ts.Close()

	client, err := NewStripeClient(Config{
		SecretKey: "sk_test",
		BaseURL:   ts.URL,
		Amount:    199,
		Currency:  "uah",
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	url, err := client.CreatePaymentLink(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_test", url)
	assert.Equal(t, "payment", gotForm["mode"])
	assert.Equal(t, "19900", gotForm["unit_amount"])
	assert.Equal(t, "uah", gotForm["currency"])
	assert.Equal(t, "chat-1", gotForm["chat_id"])
}

func TestCreatePaymentLinkErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid key"}}`, http.StatusUnauthorized)
	}))
	defer ts.Close()

	client, err := NewStripeClient(Config{SecretKey: "sk_bad", BaseURL: ts.URL, Amount: 199}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	_, err = client.CreatePaymentLink(context.Background(), "chat-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestNewStripeClientValidation(t *testing.T) {
	_, err := NewStripeClient(Config{Amount: 199}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewStripeClient(Config{SecretKey: "sk_test"}, zap.NewNop())
	assert.Error(t, err)
}

func TestStaticProvider(t *testing.T) {
	provider := NewStaticProvider("https://pay.example/static")

	url, err := provider.CreatePaymentLink(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/static", url)

	empty := NewStaticProvider("")
	_, err = empty.CreatePaymentLink(context.Background(), "chat-1")
	assert.Error(t, err)
}
