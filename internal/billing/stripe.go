package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v83"
	checkoutsession "github.com/stripe/stripe-go/v83/checkout/session"
	"github.com/stripe/stripe-go/v83/webhook"
)

// StripeProvider implements Provider using Stripe Checkout.
type StripeProvider struct {
	webhookSecret string
	logger        *slog.Logger
}

// Compile-time check that StripeProvider implements Provider.
var _ Provider = (*StripeProvider)(nil)

// NewStripeProvider creates a new Stripe billing provider.
// Sets the package-level API key used by the Stripe SDK.
func NewStripeProvider(apiKey, webhookSecret string, logger *slog.Logger) *StripeProvider {
	stripe.Key = apiKey
	if logger == nil {
		logger = slog.Default()
	}
	return &StripeProvider{
		webhookSecret: webhookSecret,
		logger:        logger.With("provider", "stripe"),
	}
}

// CreateCheckoutSession creates a one-time payment Checkout session for an invoice.
func (s *StripeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	checkoutParams := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(params.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Invoice %s", params.InvoiceNumber)),
					},
					UnitAmount: stripe.Int64(params.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(params.SuccessURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(params.CancelURL),
		Metadata: map[string]string{
			"invoice_id":     params.InvoiceID,
			"invoice_number": params.InvoiceNumber,
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{
				"invoice_id": params.InvoiceID,
			},
		},
	}
	if params.CustomerEmail != "" {
		checkoutParams.CustomerEmail = stripe.String(params.CustomerEmail)
	}

	session, err := checkoutsession.New(checkoutParams)
	if err != nil {
		s.logger.Error("failed to create checkout session",
			"invoice_id", params.InvoiceID,
			"error", err)
		return nil, fmt.Errorf("%w: %v", ErrCheckoutFailed, err)
	}

	s.logger.Info("checkout session created",
		"session_id", session.ID,
		"invoice_id", params.InvoiceID)

	return &CheckoutSession{
		ID:  session.ID,
		URL: session.URL,
	}, nil
}

// VerifyWebhook verifies the Stripe-Signature header and decodes the event.
func (s *StripeProvider) VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	// Metadata lives on the event object (payment intent or checkout session)
	var obj struct {
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
		return nil, fmt.Errorf("failed to decode event object: %w", err)
	}

	return &WebhookEvent{
		ID:       event.ID,
		Type:     string(event.Type),
		Metadata: obj.Metadata,
	}, nil
}
