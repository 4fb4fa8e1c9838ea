package payment_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formloom/formloom/payment"
)

func gatewayFor(t *testing.T, handler http.HandlerFunc) *payment.Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &payment.Gateway{
		BaseURL:    srv.URL,
		SecretKey:  "sk_test",
		HTTPClient: srv.Client(),
	}
}

func TestCreateIntent(t *testing.T) {
	g := gatewayFor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("authorization"))
		assert.Equal(t, "999", r.FormValue("amount"))
		assert.Equal(t, "USD", r.FormValue("currency"))
		w.Write([]byte(`{"client_secret":"cs_123"}`))
	})

	secret, err := g.CreateIntent(context.Background(), 999, "USD")
	require.NoError(t, err)
	assert.Equal(t, "cs_123", secret)
}

func TestCreateIntentProviderError(t *testing.T) {
	g := gatewayFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"amount too small"}}`))
	})

	_, err := g.CreateIntent(context.Background(), 1, "USD")

	var perr *payment.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "amount too small", perr.Message)
}

func TestConfirmCard(t *testing.T) {
	g := gatewayFor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents/confirm", r.URL.Path)
		assert.Equal(t, "cs_123", r.FormValue("client_secret"))
		assert.Equal(t, "Ann", r.FormValue("billing_name"))
		w.Write([]byte(`{"status":"succeeded"}`))
	})

	assert.NoError(t, g.ConfirmCard(context.Background(), "cs_123", "Ann"))
}

func TestConfirmCardDeclined(t *testing.T) {
	g := gatewayFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"card declined"}}`))
	})

	err := g.ConfirmCard(context.Background(), "cs_123", "Ann")

	var perr *payment.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "card declined", perr.Message)
}

func TestConfirmCardIncompleteStatus(t *testing.T) {
	g := gatewayFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"requires_action"}`))
	})

	err := g.ConfirmCard(context.Background(), "cs_123", "Ann")

	var perr *payment.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "payment was not completed", perr.Message)
}
