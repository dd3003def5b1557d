package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// MockProvider is a mock billing provider for testing.
// Simulates checkout and webhook flows without calling the Stripe API.
type MockProvider struct {
	// CreateCheckoutSessionFunc allows customizing checkout behavior
	CreateCheckoutSessionFunc func(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)

	// VerifyWebhookFunc allows customizing webhook verification behavior
	VerifyWebhookFunc func(payload []byte, signature string) (*WebhookEvent, error)

	// Sessions stores created sessions keyed by ID
	Sessions map[string]*CheckoutSession

	// CallLog tracks method calls for test assertions
	CallLog []string
}

// Compile-time check that MockProvider implements Provider.
var _ Provider = (*MockProvider)(nil)

// NewMockProvider creates a new mock billing provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Sessions: make(map[string]*CheckoutSession),
		CallLog:  []string{},
	}
}

// CreateCheckoutSession creates a mock checkout session.
func (m *MockProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateCheckoutSession(%s, %d)", params.InvoiceID, params.AmountCents))

	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, params)
	}

	session := &CheckoutSession{
		ID:  "cs_" + uuid.New().String(),
		URL: "https://checkout.example.com/pay/" + params.InvoiceID,
	}
	m.Sessions[session.ID] = session
	return session, nil
}

// VerifyWebhook verifies a mock webhook payload.
func (m *MockProvider) VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	m.CallLog = append(m.CallLog, "VerifyWebhook")

	if m.VerifyWebhookFunc != nil {
		return m.VerifyWebhookFunc(payload, signature)
	}

	if signature == "" {
		return nil, ErrInvalidSignature
	}

	return &WebhookEvent{
		ID:   "evt_" + uuid.New().String(),
		Type: "payment_intent.succeeded",
	}, nil
}
