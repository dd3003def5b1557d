package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/billwave/billwave/internal/domain"
	"github.com/billwave/billwave/internal/middleware"
)

// InvoiceHandler serves the invoice lifecycle endpoints.
type InvoiceHandler struct {
	invoices domain.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoices domain.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// createInvoiceRequest is the wire format for invoice creation.
type createInvoiceRequest struct {
	Customer struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Email   string `json:"email"`
		Address string `json:"address"`
	} `json:"customer"`
	Metadata struct {
		InvoiceNo    string `json:"invoiceNo"`
		DueDate      string `json:"dueDate"`
		IssueDate    string `json:"issueDate"`
		PaymentTerms string `json:"paymentTerms"`
		Notes        string `json:"notes"`
		Language     string `json:"language"`
	} `json:"metadata"`
	Items []struct {
		Description     string  `json:"description"`
		Quantity        float64 `json:"quantity"`
		UnitPrice       float64 `json:"unitPrice"`
		TaxPercent      float64 `json:"tax"`
		DiscountPercent float64 `json:"discount"`
	} `json:"items"`
}

// Create handles POST /api/invoices
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, domain.Invalid("invoice.create", "Invalid request body"))
		return
	}

	dueDate, err := parseDate(req.Metadata.DueDate)
	if err != nil && req.Metadata.DueDate != "" {
		ErrorResponse(w, r, domain.Invalid("invoice.create", "Invalid due date format"))
		return
	}
	issueDate, err := parseDate(req.Metadata.IssueDate)
	if err != nil && req.Metadata.IssueDate != "" {
		ErrorResponse(w, r, domain.Invalid("invoice.create", "Invalid issue date format"))
		return
	}

	draft := domain.InvoiceDraft{
		ClientName:    req.Customer.Name,
		CustomerPhone: req.Customer.Phone,
		CustomerEmail: req.Customer.Email,
		ClientAddress: req.Customer.Address,
		InvoiceNumber: req.Metadata.InvoiceNo,
		Language:      req.Metadata.Language,
		DueDate:       dueDate,
		IssueDate:     issueDate,
		PaymentTerms:  req.Metadata.PaymentTerms,
		Notes:         req.Metadata.Notes,
	}
	for _, item := range req.Items {
		draft.Items = append(draft.Items, domain.LineItem{
			Name:            item.Description,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			TaxPercent:      item.TaxPercent,
			DiscountPercent: item.DiscountPercent,
		})
	}

	inv, err := h.invoices.Create(r.Context(), draft, middleware.GetPrincipal(r.Context()))
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	middleware.GetLogger(r.Context()).Info("invoice created",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber)

	RespondJSON(w, http.StatusCreated, inv)
}

// List handles GET /api/invoices
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.InvoiceFilter{
		InvoiceNumber: q.Get("invoiceNumber"),
		ClientName:    q.Get("clientName"),
		CustomerEmail: q.Get("customerEmail"),
	}

	invoices, err := h.invoices.List(r.Context(), filter, middleware.GetPrincipal(r.Context()))
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{
		"count":    len(invoices),
		"invoices": invoices,
	})
}

// Get handles GET /api/invoices/{id}
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invoices.Get(r.Context(), r.PathValue("id"), middleware.GetPrincipal(r.Context()))
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, inv)
}

// RenderPDF handles POST /api/invoices/{id}/pdf
func (h *InvoiceHandler) RenderPDF(w http.ResponseWriter, r *http.Request) {
	url, err := h.invoices.RenderPDF(r.Context(), r.PathValue("id"), middleware.GetPrincipal(r.Context()))
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]string{"pdfUrl": url})
}

// DownloadPDF handles GET /api/invoices/{id}/download
func (h *InvoiceHandler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	rc, inv, err := h.invoices.DownloadPDF(r.Context(), r.PathValue("id"), middleware.GetPrincipal(r.Context()))
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", inv.InvoiceNumber+".pdf"))
	if _, err := io.Copy(w, rc); err != nil {
		middleware.GetLogger(r.Context()).Error("failed to stream invoice PDF",
			"invoice_id", inv.ID,
			"error", err)
	}
}

// parseDate accepts a calendar date or a full RFC3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
