package services

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dinewell/tableside/apperrors"
	"github.com/dinewell/tableside/models"
	"github.com/google/uuid"
)

// ProviderConfig holds the HTTP payment provider settings.
type ProviderConfig struct {
	BaseURL   string
	ServerKey string
	Timeout   time.Duration
}

// HTTPPaymentProvider talks to the payment gateway's REST API. Requests use
// server-key basic auth and a bounded timeout; gateway statuses are
// normalized before they leave this file.
type HTTPPaymentProvider struct {
	config     *ProviderConfig
	httpClient *http.Client
}

func NewHTTPPaymentProvider(cfg *ProviderConfig) *HTTPPaymentProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &HTTPPaymentProvider{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// gatewayResponse is the subset of the gateway payload we care about.
type gatewayResponse struct {
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	ClientSecret      string `json:"client_secret"`
	StatusMessage     string `json:"status_message"`
}

func (p *HTTPPaymentProvider) CreateIntent(ctx context.Context, amount float64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	payload := map[string]interface{}{
		"reference_id": uuid.NewString(),
		"gross_amount": amount,
		"currency":     currency,
		"metadata":     metadata,
	}

	resp, err := p.post(ctx, "/v2/charge", payload)
	if err != nil {
		return nil, err
	}
	return &PaymentIntent{
		ProviderID:   resp.TransactionID,
		ClientSecret: resp.ClientSecret,
	}, nil
}

func (p *HTTPPaymentProvider) Confirm(ctx context.Context, providerID, method string) (*ProviderResult, error) {
	payload := map[string]interface{}{
		"payment_type": method,
		// Re-confirming with the same key must not double-charge.
		"idempotency_key": uuid.NewString(),
	}

	resp, err := p.post(ctx, fmt.Sprintf("/v2/%s/confirm", providerID), payload)
	if err != nil {
		return nil, err
	}
	return &ProviderResult{Status: NormalizeProviderStatus(resp.TransactionStatus)}, nil
}

func (p *HTTPPaymentProvider) Refund(ctx context.Context, providerID string, amount float64, reason string) (*ProviderResult, error) {
	payload := map[string]interface{}{
		"amount": amount,
		"reason": reason,
	}

	resp, err := p.post(ctx, fmt.Sprintf("/v2/%s/refund", providerID), payload)
	if err != nil {
		return nil, err
	}
	return &ProviderResult{Status: NormalizeProviderStatus(resp.TransactionStatus)}, nil
}

func (p *HTTPPaymentProvider) Status(ctx context.Context, providerID string) (*ProviderResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.config.BaseURL+fmt.Sprintf("/v2/%s/status", providerID), nil)
	if err != nil {
		return nil, err
	}
	p.setHeaders(req)

	resp, err := p.do(req)
	if err != nil {
		return nil, err
	}
	return &ProviderResult{Status: NormalizeProviderStatus(resp.TransactionStatus)}, nil
}

func (p *HTTPPaymentProvider) post(ctx context.Context, path string, payload interface{}) (*gatewayResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	p.setHeaders(req)

	return p.do(req)
}

func (p *HTTPPaymentProvider) setHeaders(req *http.Request) {
	auth := "Basic " + base64.StdEncoding.EncodeToString([]byte(p.config.ServerKey+":"))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)
}

func (p *HTTPPaymentProvider) do(req *http.Request) (*gatewayResponse, error) {
	httpResp, err := p.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, apperrors.Wrap(apperrors.KindProviderTimeout, err, "payment provider timed out")
		}
		return nil, apperrors.Wrap(apperrors.KindProviderError, err, "payment provider request failed")
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindProviderError, err, "reading provider response")
	}

	if httpResp.StatusCode >= http.StatusBadRequest {
		return nil, apperrors.New(apperrors.KindProviderError,
			"provider returned %d: %s", httpResp.StatusCode, string(raw))
	}

	var resp gatewayResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, apperrors.Wrap(apperrors.KindProviderError, err, "decoding provider response")
	}
	return &resp, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var uerr *url.Error
	return errors.As(err, &uerr) && uerr.Timeout()
}

// NormalizeProviderStatus maps gateway transaction statuses onto the
// normalized payment status set.
func NormalizeProviderStatus(status string) string {
	switch status {
	case "settlement", "capture", "succeeded":
		return models.PaymentStatusSucceeded
	case "pending", "authorize":
		return models.PaymentStatusPending
	case "processing":
		return models.PaymentStatusProcessing
	case "deny", "failure", "failed":
		return models.PaymentStatusFailed
	case "expire", "cancel", "cancelled", "refund":
		return models.PaymentStatusCancelled
	default:
		return models.PaymentStatusPending
	}
}

// VerifyWebhookSignature checks the sha512 signature the gateway attaches to
// callbacks: hex(sha512(orderID + statusCode + grossAmount + serverKey)).
func (p *HTTPPaymentProvider) VerifyWebhookSignature(orderID, statusCode, grossAmount, signature string) bool {
	return VerifySignature(orderID, statusCode, grossAmount, p.config.ServerKey, signature)
}

func VerifySignature(orderID, statusCode, grossAmount, serverKey, signature string) bool {
	h := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(h[:]) == signature
}
