package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/billwave/billwave/internal/domain"
	"github.com/billwave/billwave/internal/pdf"
	"github.com/billwave/billwave/internal/storage"
	"github.com/google/uuid"
)

// Invoice-specific errors
var (
	ErrClientNameRequired   = domain.Errorf(domain.EINVALID, "", "Client name is required")
	ErrCustomerPhoneMissing = domain.Errorf(domain.EINVALID, "", "Customer phone is required")
	ErrDueDateRequired      = domain.Errorf(domain.EINVALID, "", "Due date is required")
	ErrPaymentTermsRequired = domain.Errorf(domain.EINVALID, "", "Payment terms are required")
	ErrNoLineItems          = domain.Errorf(domain.EINVALID, "", "At least one line item is required")
	ErrBadLineItem          = domain.Errorf(domain.EINVALID, "", "Line items need a name, a positive quantity and a non-negative price")
)

type invoiceService struct {
	store    domain.InvoiceStore
	renderer pdf.Renderer
	files    storage.Storage
	logger   *slog.Logger
}

// NewInvoiceService creates a new InvoiceService instance.
func NewInvoiceService(
	store domain.InvoiceStore,
	renderer pdf.Renderer,
	files storage.Storage,
	logger *slog.Logger,
) domain.InvoiceService {
	return &invoiceService{
		store:    store,
		renderer: renderer,
		files:    files,
		logger:   logger.With("service", "invoice"),
	}
}

// Create validates the draft, computes totals, allocates a unique invoice
// number, persists the record and attempts a first PDF render. The render is
// best-effort: a failure is logged and the invoice is returned without an
// artifact reference.
func (s *invoiceService) Create(ctx context.Context, draft domain.InvoiceDraft, principal *domain.Principal) (*domain.Invoice, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	totals := domain.CalculateTotals(draft.Items)

	number, err := s.allocateInvoiceNumber(ctx, draft.InvoiceNumber)
	if err != nil {
		return nil, err
	}

	invoiceDate := draft.IssueDate
	if invoiceDate.IsZero() {
		invoiceDate = time.Now()
	}
	language := draft.Language
	if language == "" {
		language = "en"
	}

	inv := &domain.Invoice{
		InvoiceNumber: number,
		ClientName:    draft.ClientName,
		CustomerPhone: draft.CustomerPhone,
		CustomerEmail: draft.CustomerEmail,
		ClientAddress: draft.ClientAddress,
		Items:         draft.Items,

		SubTotal:      totals.SubTotal,
		TotalTax:      totals.TotalTax,
		TotalDiscount: totals.TotalDiscount,
		TotalAmount:   totals.TotalAmount,

		Language:       language,
		PaymentStatus:  domain.PaymentPending,
		Status:         "pending",
		DueDate:        draft.DueDate,
		InvoiceDate:    invoiceDate,
		PaymentTerms:   draft.PaymentTerms,
		Notes:          draft.Notes,
		WhatsAppStatus: domain.StatusNotSent,
	}
	if principal != nil {
		id := principal.ID
		inv.CreatedBy = &id
	}

	created, err := s.store.Create(ctx, inv)
	if err != nil {
		return nil, err
	}

	// First render is best-effort: creation already succeeded.
	url, err := s.renderer.Render(ctx, created)
	if err != nil {
		s.logger.Warn("initial PDF render failed, invoice created without artifact",
			"invoice_id", created.ID,
			"invoice_number", created.InvoiceNumber,
			"error", err)
		return created, nil
	}

	updated, err := s.store.UpdateDelivery(ctx, created.ID, domain.DeliveryUpdate{PDFURL: &url})
	if err != nil {
		s.logger.Warn("failed to record PDF URL after render",
			"invoice_id", created.ID,
			"error", err)
		return created, nil
	}

	return updated, nil
}

// Get returns the invoice, enforcing ownership.
func (s *invoiceService) Get(ctx context.Context, invoiceID string, principal *domain.Principal) (*domain.Invoice, error) {
	inv, err := s.fetch(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := authorizeInvoice(inv, principal); err != nil {
		return nil, err
	}
	return inv, nil
}

// List returns invoices matching the filter, newest first. An authenticated
// list is scoped to the caller's own invoices; anonymous callers see only
// ownerless records.
func (s *invoiceService) List(ctx context.Context, filter domain.InvoiceFilter, principal *domain.Principal) ([]domain.Invoice, error) {
	if principal != nil {
		id := principal.ID
		filter.CreatedBy = &id
	}

	invoices, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	visible := make([]domain.Invoice, 0, len(invoices))
	for i := range invoices {
		if authorizeInvoice(&invoices[i], principal) == nil {
			visible = append(visible, invoices[i])
		}
	}

	return visible, nil
}

// RenderPDF regenerates the artifact on demand. Unlike creation, failures
// here surface to the caller as dependency errors.
func (s *invoiceService) RenderPDF(ctx context.Context, invoiceID string, principal *domain.Principal) (string, error) {
	inv, err := s.Get(ctx, invoiceID, principal)
	if err != nil {
		return "", err
	}

	url, err := s.renderer.Render(ctx, inv)
	if err != nil {
		return "", domain.Dependency(err, "invoice.render_pdf", "Failed to generate invoice PDF")
	}

	if _, err := s.store.UpdateDelivery(ctx, inv.ID, domain.DeliveryUpdate{PDFURL: &url}); err != nil {
		return "", err
	}

	return url, nil
}

// DownloadPDF streams the stored artifact. Fails when no artifact exists.
func (s *invoiceService) DownloadPDF(ctx context.Context, invoiceID string, principal *domain.Principal) (io.ReadCloser, *domain.Invoice, error) {
	inv, err := s.Get(ctx, invoiceID, principal)
	if err != nil {
		return nil, nil, err
	}

	if inv.PDFURL == nil {
		return nil, nil, domain.Errorf(domain.ENOTFOUND, "invoice.download_pdf", "PDF not generated yet")
	}

	// The record can claim an artifact that storage no longer holds,
	// for example after a volume wipe. Treat that as not found rather
	// than a backend failure.
	ok, err := s.files.Exists(ctx, pdf.Key(inv.InvoiceNumber))
	if err != nil {
		return nil, nil, domain.Dependency(err, "invoice.download_pdf", "Failed to read invoice PDF")
	}
	if !ok {
		return nil, nil, domain.Errorf(domain.ENOTFOUND, "invoice.download_pdf", "PDF not generated yet")
	}

	rc, err := s.files.Get(ctx, pdf.Key(inv.InvoiceNumber))
	if err != nil {
		return nil, nil, domain.Dependency(err, "invoice.download_pdf", "Failed to read invoice PDF")
	}

	return rc, inv, nil
}

// MarkPaymentStatus records a payment outcome. Called by the payment webhook;
// not ownership-checked because the caller is the provider, not a user.
func (s *invoiceService) MarkPaymentStatus(ctx context.Context, invoiceID string, status domain.PaymentStatus) error {
	inv, err := s.fetch(ctx, invoiceID)
	if err != nil {
		return err
	}

	update := domain.DeliveryUpdate{PaymentStatus: &status}
	if status == domain.PaymentPaid {
		paid := "paid"
		update.Status = &paid
	}

	if _, err := s.store.UpdateDelivery(ctx, inv.ID, update); err != nil {
		return err
	}

	s.logger.Info("payment status recorded",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"payment_status", status)

	return nil
}

func (s *invoiceService) fetch(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	return fetchInvoice(ctx, s.store, invoiceID)
}

// fetchInvoice parses the ID and loads the invoice. Malformed IDs read as not
// found so the API never leaks which IDs are syntactically plausible.
func fetchInvoice(ctx context.Context, store domain.InvoiceStore, invoiceID string) (*domain.Invoice, error) {
	id, err := uuid.Parse(invoiceID)
	if err != nil {
		return nil, domain.ErrInvoiceNotFound
	}
	return store.GetByID(ctx, id)
}

// allocateInvoiceNumber resolves the final invoice number. A client-supplied
// number is used unless it is already taken, in which case a fresh timestamp
// number is minted. Minted numbers are not re-checked; the store's unique
// constraint is the final arbiter.
func (s *invoiceService) allocateInvoiceNumber(ctx context.Context, requested string) (string, error) {
	candidate := requested
	if candidate == "" {
		candidate = mintInvoiceNumber()
	}

	exists, err := s.store.NumberExists(ctx, candidate)
	if err != nil {
		return "", err
	}
	if exists {
		minted := mintInvoiceNumber()
		s.logger.Info("invoice number taken, minted replacement",
			"requested", candidate,
			"minted", minted)
		return minted, nil
	}

	return candidate, nil
}

// mintInvoiceNumber produces a timestamp-based number, e.g. INV-1718031622345.
func mintInvoiceNumber() string {
	return fmt.Sprintf("INV-%d", time.Now().UnixMilli())
}

// validateDraft rejects drafts before any totals or numbering work happens.
func validateDraft(draft domain.InvoiceDraft) error {
	if draft.ClientName == "" {
		return ErrClientNameRequired
	}
	if draft.CustomerPhone == "" {
		return ErrCustomerPhoneMissing
	}
	if draft.DueDate.IsZero() {
		return ErrDueDateRequired
	}
	if draft.PaymentTerms == "" {
		return ErrPaymentTermsRequired
	}
	if len(draft.Items) == 0 {
		return ErrNoLineItems
	}
	for _, item := range draft.Items {
		if item.Name == "" || item.Quantity < 1 || item.UnitPrice < 0 {
			return ErrBadLineItem
		}
	}
	return nil
}

// authorizeInvoice enforces ownership: unowned invoices are visible to
// everyone, owned invoices only to their creator.
func authorizeInvoice(inv *domain.Invoice, principal *domain.Principal) error {
	if !inv.Owned() {
		return nil
	}
	if principal == nil || *inv.CreatedBy != principal.ID {
		return domain.Forbidden("invoice.authorize", "You do not have access to this invoice")
	}
	return nil
}
