package services

import (
	"context"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dinewell/tableside/apperrors"
	"github.com/dinewell/tableside/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIntentSendsAuthAndParsesResponse(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{
			"transaction_id": "txn-100",
			"client_secret":  "cs_test",
		})
	}))
	defer srv.Close()

	provider := NewHTTPPaymentProvider(&ProviderConfig{BaseURL: srv.URL, ServerKey: "sk-test"})

	intent, err := provider.CreateIntent(context.Background(), 25.50, "USD", map[string]string{"split_session_id": "1"})
	require.NoError(t, err)
	assert.Equal(t, "txn-100", intent.ProviderID)
	assert.Equal(t, "cs_test", intent.ClientSecret)

	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("sk-test:"))
	assert.Equal(t, wantAuth, gotAuth)
	assert.NotEmpty(t, gotBody["reference_id"])
	assert.InDelta(t, 25.50, gotBody["gross_amount"].(float64), 0.001)
}

func TestStatusNormalizesGatewayStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/txn-100/status", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{
			"transaction_id":     "txn-100",
			"transaction_status": "settlement",
		})
	}))
	defer srv.Close()

	provider := NewHTTPPaymentProvider(&ProviderConfig{BaseURL: srv.URL, ServerKey: "sk-test"})

	res, err := provider.Status(context.Background(), "txn-100")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSucceeded, res.Status)
}

func TestProviderErrorOnBadStatusCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status_message":"invalid server key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	provider := NewHTTPPaymentProvider(&ProviderConfig{BaseURL: srv.URL, ServerKey: "bad"})

	_, err := provider.Confirm(context.Background(), "txn-100", "card")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindProviderError, apperrors.KindOf(err))
}

func TestProviderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	provider := NewHTTPPaymentProvider(&ProviderConfig{
		BaseURL:   srv.URL,
		ServerKey: "sk-test",
		Timeout:   20 * time.Millisecond,
	})

	_, err := provider.Status(context.Background(), "txn-100")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindProviderTimeout, apperrors.KindOf(err))
}

func TestNormalizeProviderStatus(t *testing.T) {
	cases := map[string]string{
		"settlement": models.PaymentStatusSucceeded,
		"capture":    models.PaymentStatusSucceeded,
		"pending":    models.PaymentStatusPending,
		"processing": models.PaymentStatusProcessing,
		"deny":       models.PaymentStatusFailed,
		"failure":    models.PaymentStatusFailed,
		"expire":     models.PaymentStatusCancelled,
		"cancel":     models.PaymentStatusCancelled,
		"refund":     models.PaymentStatusCancelled,
		"anything":   models.PaymentStatusPending,
	}
	for gateway, want := range cases {
		assert.Equal(t, want, NormalizeProviderStatus(gateway), "gateway status %q", gateway)
	}
}

func TestVerifySignature(t *testing.T) {
	h := sha512.Sum512([]byte("txn-100" + "200" + "25.50" + "sk-test"))
	good := hex.EncodeToString(h[:])

	assert.True(t, VerifySignature("txn-100", "200", "25.50", "sk-test", good))
	assert.False(t, VerifySignature("txn-100", "200", "25.50", "sk-test", "forged"))
	assert.False(t, VerifySignature("txn-101", "200", "25.50", "sk-test", good))
}
