package handler

import (
	"encoding/json"
	"net/http"

	"github.com/billwave/billwave/internal/domain"
	"github.com/billwave/billwave/internal/middleware"
	"github.com/billwave/billwave/internal/service"
)

// PaymentHandler exposes hosted checkout creation.
type PaymentHandler struct {
	payments service.PaymentService
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(payments service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type checkoutRequest struct {
	InvoiceID string `json:"invoiceId"`
	Currency  string `json:"currency"`
}

// CreateCheckout handles POST /api/payments/checkout.
func (h *PaymentHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, domain.Invalid("payment.checkout", "Invalid request body"))
		return
	}
	if req.InvoiceID == "" {
		ErrorResponse(w, r, domain.Invalid("payment.checkout", "invoiceId is required"))
		return
	}

	principal := middleware.GetPrincipal(r.Context())

	session, err := h.payments.CreateCheckout(r.Context(), req.InvoiceID, req.Currency, principal)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	middleware.GetLogger(r.Context()).Info("checkout session created",
		"invoice_id", req.InvoiceID, "session_id", session.ID)

	RespondJSON(w, http.StatusOK, map[string]any{
		"sessionId": session.ID,
		"url":       session.URL,
	})
}
