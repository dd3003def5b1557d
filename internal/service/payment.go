package service

import (
	"context"
	"log/slog"
	"math"

	"github.com/billwave/billwave/internal/billing"
	"github.com/billwave/billwave/internal/domain"
)

// Payment-specific errors
var (
	ErrAlreadyPaid   = domain.Errorf(domain.EINVALID, "", "Invoice is already paid")
	ErrNothingToPay  = domain.Errorf(domain.EINVALID, "", "Invoice total must be positive to collect payment")
	ErrEventRejected = domain.Errorf(domain.EINVALID, "", "Webhook event carries no invoice reference")
)

// PaymentService bridges invoices and the billing provider.
type PaymentService interface {
	// CreateCheckout creates a hosted checkout session for an invoice.
	CreateCheckout(ctx context.Context, invoiceID, currency string, principal *domain.Principal) (*billing.CheckoutSession, error)

	// ProcessWebhookEvent applies a verified provider event to the
	// referenced invoice.
	ProcessWebhookEvent(ctx context.Context, event *billing.WebhookEvent) error
}

type paymentService struct {
	invoices  domain.InvoiceService
	provider  billing.Provider
	clientURL string
	logger    *slog.Logger
}

// NewPaymentService creates a new PaymentService instance.
// clientURL is the frontend base URL used for checkout redirects.
func NewPaymentService(
	invoices domain.InvoiceService,
	provider billing.Provider,
	clientURL string,
	logger *slog.Logger,
) PaymentService {
	return &paymentService{
		invoices:  invoices,
		provider:  provider,
		clientURL: clientURL,
		logger:    logger.With("service", "payment"),
	}
}

// CreateCheckout creates a checkout session covering the invoice total.
func (s *paymentService) CreateCheckout(ctx context.Context, invoiceID, currency string, principal *domain.Principal) (*billing.CheckoutSession, error) {
	inv, err := s.invoices.Get(ctx, invoiceID, principal)
	if err != nil {
		return nil, err
	}

	if inv.PaymentStatus == domain.PaymentPaid {
		return nil, ErrAlreadyPaid
	}
	if inv.TotalAmount <= 0 {
		return nil, ErrNothingToPay
	}
	if currency == "" {
		currency = "usd"
	}

	session, err := s.provider.CreateCheckoutSession(ctx, billing.CheckoutParams{
		InvoiceID:     inv.ID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		AmountCents:   int64(math.Round(inv.TotalAmount * 100)),
		Currency:      currency,
		CustomerEmail: inv.CustomerEmail,
		SuccessURL:    s.clientURL + "/payment/success",
		CancelURL:     s.clientURL + "/payment/cancelled",
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

// ProcessWebhookEvent maps provider events onto the invoice payment status.
// Unrecognized event types are acknowledged without effect.
func (s *paymentService) ProcessWebhookEvent(ctx context.Context, event *billing.WebhookEvent) error {
	var status domain.PaymentStatus
	switch event.Type {
	case "payment_intent.succeeded", "checkout.session.completed":
		status = domain.PaymentPaid
	case "payment_intent.payment_failed":
		status = domain.PaymentFailed
	default:
		s.logger.Debug("ignoring webhook event", "type", event.Type, "id", event.ID)
		return nil
	}

	invoiceID := event.Metadata["invoice_id"]
	if invoiceID == "" {
		return ErrEventRejected
	}

	return s.invoices.MarkPaymentStatus(ctx, invoiceID, status)
}
