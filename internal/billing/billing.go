package billing

import (
	"context"

	"github.com/billwave/billwave/internal/domain"
)

// Billing-specific errors
var (
	ErrCheckoutFailed   = domain.Errorf(domain.EDEPENDENCY, "", "Failed to create checkout session")
	ErrInvalidSignature = domain.Errorf(domain.EINVALID, "", "Invalid webhook signature")
)

// CheckoutParams contains parameters for creating a hosted checkout session.
type CheckoutParams struct {
	InvoiceID     string
	InvoiceNumber string

	// AmountCents is the amount in the smallest currency unit.
	AmountCents int64

	// Currency code (ISO 4217), e.g. "usd", "inr"
	Currency string

	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is a created hosted payment session.
type CheckoutSession struct {
	ID  string
	URL string
}

// WebhookEvent is a verified payment provider event.
type WebhookEvent struct {
	ID       string
	Type     string
	Metadata map[string]string
}

// Provider defines the interface for payment processing.
type Provider interface {
	// CreateCheckoutSession creates a hosted checkout session for an invoice.
	// Returns the session with a URL to redirect the customer to.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)

	// VerifyWebhook verifies a webhook request signature and returns the
	// decoded event. Returns ErrInvalidSignature on verification failure.
	VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
