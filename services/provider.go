package services

import "context"

// PaymentIntent is the provider-side handle for a pending charge.
type PaymentIntent struct {
	ProviderID   string `json:"provider_id"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// ProviderResult carries the normalized status of a provider operation.
// Statuses are normalized into the models.PaymentStatus* set.
type ProviderResult struct {
	Status string `json:"status"`
}

// PaymentProvider is the abstract contract over card/wallet networks. The
// concrete integration lives behind it; callers only see normalized
// statuses. All methods respect the context deadline and surface
// ProviderTimeout rather than blocking indefinitely.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, amount float64, currency string, metadata map[string]string) (*PaymentIntent, error)
	Confirm(ctx context.Context, providerID, method string) (*ProviderResult, error)
	Refund(ctx context.Context, providerID string, amount float64, reason string) (*ProviderResult, error)
	Status(ctx context.Context, providerID string) (*ProviderResult, error)
}
