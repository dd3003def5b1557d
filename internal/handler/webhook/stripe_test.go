package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billwave/billwave/internal/billing"
	"github.com/billwave/billwave/internal/domain"
)

type stubPayments struct {
	events []*billing.WebhookEvent
	err    error
}

func (s *stubPayments) CreateCheckout(ctx context.Context, invoiceID, currency string, principal *domain.Principal) (*billing.CheckoutSession, error) {
	return nil, nil
}

func (s *stubPayments) ProcessWebhookEvent(ctx context.Context, event *billing.WebhookEvent) error {
	s.events = append(s.events, event)
	return s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleWebhook_AppliesVerifiedEvent(t *testing.T) {
	provider := billing.NewMockProvider()
	provider.VerifyWebhookFunc = func(payload []byte, signature string) (*billing.WebhookEvent, error) {
		return &billing.WebhookEvent{
			ID:       "evt_1",
			Type:     "payment_intent.succeeded",
			Metadata: map[string]string{"invoice_id": "inv-1"},
		}, nil
	}
	payments := &stubPayments{}
	h := NewStripeHandler(provider, payments, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()

	h.HandleWebhook(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, payments.events, 1)
	assert.Equal(t, "evt_1", payments.events[0].ID)
	assert.Equal(t, "inv-1", payments.events[0].Metadata["invoice_id"])
}

func TestHandleWebhook_RejectsBadSignature(t *testing.T) {
	provider := billing.NewMockProvider()
	payments := &stubPayments{}
	h := NewStripeHandler(provider, payments, testLogger())

	// Mock provider rejects requests without a signature header
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.HandleWebhook(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, payments.events)
	assert.Contains(t, rec.Body.String(), domain.EINVALID)
}

func TestHandleWebhook_SurfacesProcessingFailure(t *testing.T) {
	provider := billing.NewMockProvider()
	provider.VerifyWebhookFunc = func(payload []byte, signature string) (*billing.WebhookEvent, error) {
		return &billing.WebhookEvent{ID: "evt_2", Type: "payment_intent.succeeded"}, nil
	}
	payments := &stubPayments{err: domain.Errorf(domain.EINVALID, "", "Webhook event carries no invoice reference")}
	h := NewStripeHandler(provider, payments, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()

	h.HandleWebhook(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
