package webhook

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/billwave/billwave/internal/billing"
	"github.com/billwave/billwave/internal/domain"
	"github.com/billwave/billwave/internal/handler"
	"github.com/billwave/billwave/internal/service"
)

// maxPayloadBytes caps webhook bodies. Stripe events are small.
const maxPayloadBytes = 65536

// StripeHandler receives payment provider webhooks.
type StripeHandler struct {
	provider billing.Provider
	payments service.PaymentService
	logger   *slog.Logger
}

// NewStripeHandler creates a new webhook handler.
func NewStripeHandler(provider billing.Provider, payments service.PaymentService, logger *slog.Logger) *StripeHandler {
	return &StripeHandler{
		provider: provider,
		payments: payments,
		logger:   logger.With("handler", "stripe_webhook"),
	}
}

// HandleWebhook handles POST /webhooks/stripe. The raw body is verified
// against the Stripe-Signature header before the event is applied.
func (h *StripeHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("webhook.stripe", "Failed to read request body"))
		return
	}

	event, err := h.provider.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook verification failed", "error", err)
		handler.ErrorResponse(w, r, err)
		return
	}

	if err := h.payments.ProcessWebhookEvent(r.Context(), event); err != nil {
		h.logger.Error("failed to process webhook event",
			"event_id", event.ID, "type", event.Type, "error", err)
		handler.ErrorResponse(w, r, err)
		return
	}

	h.logger.Info("webhook event processed", "event_id", event.ID, "type", event.Type)

	handler.RespondJSON(w, http.StatusOK, map[string]any{"received": true})
}
