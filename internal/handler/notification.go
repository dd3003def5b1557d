package handler

import (
	"encoding/json"
	"net/http"

	"github.com/billwave/billwave/internal/domain"
	"github.com/billwave/billwave/internal/middleware"
)

// NotificationHandler serves the outbound notification endpoints.
type NotificationHandler struct {
	notifications domain.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notifications domain.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// SendInvoiceWhatsApp handles POST /api/invoices/{id}/whatsapp
func (h *NotificationHandler) SendInvoiceWhatsApp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To      string `json:"to"`
		Message string `json:"message"`
	}
	// Body is optional; an empty or malformed body means "use invoice defaults"
	_ = json.NewDecoder(r.Body).Decode(&req)

	receipt, err := h.notifications.SendInvoiceWhatsApp(r.Context(), r.PathValue("id"), domain.SendInvoiceParams{
		To:      req.To,
		Message: req.Message,
	}, middleware.GetPrincipal(r.Context()))
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": receipt,
	})
}

// SendText handles POST /api/notifications/send
func (h *NotificationHandler) SendText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To        string `json:"to"`
		Message   string `json:"message"`
		InvoiceID string `json:"invoiceId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, domain.Invalid("notification.send_text", "Invalid request body"))
		return
	}

	receipt, err := h.notifications.SendText(r.Context(), domain.SendTextParams{
		To:        req.To,
		Message:   req.Message,
		InvoiceID: req.InvoiceID,
	})
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": receipt,
	})
}

// SendComplete handles POST /api/notifications/send-complete
func (h *NotificationHandler) SendComplete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InvoiceID string `json:"invoiceId"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, domain.Invalid("notification.send_complete", "Invalid request body"))
		return
	}

	result, err := h.notifications.SendComplete(r.Context(), req.InvoiceID, req.Message, middleware.GetPrincipal(r.Context()))
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"result":  result,
	})
}

// SendInvoiceEmail handles POST /api/invoices/{id}/email
func (h *NotificationHandler) SendInvoiceEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To      string `json:"to"`
		Subject string `json:"subject"`
		HTML    string `json:"html"`
	}
	// Body is optional; defaults come from the invoice record
	_ = json.NewDecoder(r.Body).Decode(&req)

	err := h.notifications.SendInvoiceEmail(r.Context(), r.PathValue("id"), domain.SendEmailParams{
		To:      req.To,
		Subject: req.Subject,
		HTML:    req.HTML,
	}, middleware.GetPrincipal(r.Context()))
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Invoice email queued",
	})
}
