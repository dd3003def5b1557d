package domain

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus tracks whether an invoice has been paid.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// WhatsAppStatus tracks the delivery state of outbound WhatsApp notifications
// for an invoice. StatusPartial is reached only by the combined send when the
// text leg succeeds but the media leg does not.
type WhatsAppStatus string

const (
	StatusNotSent   WhatsAppStatus = "not_sent"
	StatusSent      WhatsAppStatus = "sent"
	StatusDelivered WhatsAppStatus = "delivered"
	StatusFailed    WhatsAppStatus = "failed"
	StatusPartial   WhatsAppStatus = "partial"
)

// CanTransition reports whether moving from s to next is a legal delivery
// state transition. Illegal transitions are not rejected by the dispatcher
// (the record keeps last-write-wins semantics) but are logged so that
// overwrites are visible instead of silent.
func (s WhatsAppStatus) CanTransition(next WhatsAppStatus) bool {
	switch s {
	case StatusNotSent:
		return next == StatusSent || next == StatusFailed || next == StatusPartial
	case StatusSent:
		return next == StatusSent || next == StatusFailed || next == StatusPartial
	case StatusFailed, StatusPartial:
		// Manual re-invocation is the retry mechanism; both states may be
		// retried into any outcome.
		return next == StatusSent || next == StatusFailed || next == StatusPartial
	case StatusDelivered:
		// Delivered is reported by the provider, never regressed locally.
		return next == StatusDelivered
	default:
		return false
	}
}

// NotificationMethod records which dispatch path last touched an invoice.
type NotificationMethod string

const (
	MethodWhatsApp NotificationMethod = "whatsapp"
	MethodComplete NotificationMethod = "complete"
)

// Invoice-related domain errors.
var (
	ErrInvoiceNotFound  = &Error{Code: ENOTFOUND, Message: "Invoice not found"}
	ErrPDFNotGenerated  = &Error{Code: EPRECONDITION, Message: "Invoice PDF not generated yet"}
	ErrNoRecipient      = &Error{Code: EINVALID, Message: "Recipient phone number is required"}
	ErrNoCustomerPhone  = &Error{Code: EINVALID, Message: "Customer phone number is required for notifications"}
	ErrDuplicateInvoice = &Error{Code: ECONFLICT, Message: "Invoice number already exists"}
)

// LineItem is a single invoice line. Items are embedded in the invoice and
// immutable once the invoice is created.
type LineItem struct {
	Name            string  `json:"name"`
	Quantity        float64 `json:"quantity"`
	UnitPrice       float64 `json:"unitPrice"`
	TaxPercent      float64 `json:"tax"`
	DiscountPercent float64 `json:"discount"`
}

// Totals holds the derived monetary fields of an invoice. Values are plain
// IEEE-754 doubles stored exactly as computed; no rounding is applied.
type Totals struct {
	SubTotal      float64 `json:"subTotal"`
	TotalTax      float64 `json:"totalTax"`
	TotalDiscount float64 `json:"totalDiscount"`
	TotalAmount   float64 `json:"totalAmount"`
}

// Invoice is the central billing record.
//
// All fields are fixed at creation except PDFURL, WhatsAppStatus,
// LastNotification, NotificationMethod and PaymentStatus, which mutate as the
// artifact is (re)rendered, notifications are dispatched, and payments land.
type Invoice struct {
	ID            uuid.UUID  `json:"id"`
	InvoiceNumber string     `json:"invoiceNumber"`
	ClientName    string     `json:"clientName"`
	CustomerPhone string     `json:"customerPhone"`
	CustomerEmail string     `json:"customerEmail"`
	ClientAddress string     `json:"clientAddress"`
	Items         []LineItem `json:"items"`

	SubTotal      float64 `json:"subTotal"`
	TotalTax      float64 `json:"tax"`
	TotalDiscount float64 `json:"totalDiscount"`
	TotalAmount   float64 `json:"totalAmount"`

	Language      string        `json:"language"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	Status        string        `json:"status"`
	DueDate       time.Time     `json:"dueDate"`
	InvoiceDate   time.Time     `json:"invoiceDate"`
	PaymentTerms  string        `json:"paymentTerms"`
	Notes         string        `json:"notes"`

	PDFURL             *string             `json:"pdfUrl"`
	WhatsAppStatus     WhatsAppStatus      `json:"whatsappStatus"`
	LastNotification   *time.Time          `json:"lastNotification"`
	NotificationMethod *NotificationMethod `json:"notificationMethod"`

	CreatedBy *uuid.UUID `json:"createdBy"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Owned reports whether the invoice belongs to a user. Ownerless invoices are
// readable and sendable by anyone.
func (inv *Invoice) Owned() bool {
	return inv.CreatedBy != nil
}

// InvoiceDraft is the client-submitted payload for creating an invoice.
// Monetary fields are intentionally absent: totals are always derived from
// the items (client-submitted prices are trusted as-is, there is no pricing
// source of truth to validate against).
type InvoiceDraft struct {
	ClientName    string
	CustomerPhone string
	CustomerEmail string
	ClientAddress string
	Items         []LineItem

	// InvoiceNumber is optional; when absent or colliding with a persisted
	// invoice, a fresh number is minted.
	InvoiceNumber string

	Language     string
	DueDate      time.Time
	IssueDate    time.Time // zero value means "now"
	PaymentTerms string
	Notes        string
}

// InvoiceFilter narrows List results. Zero values mean "no constraint".
type InvoiceFilter struct {
	// InvoiceNumber matches exactly.
	InvoiceNumber string

	// ClientName and CustomerEmail match case-insensitively on any substring.
	ClientName    string
	CustomerEmail string

	// CreatedBy scopes results to one owner.
	CreatedBy *uuid.UUID
}

// DeliveryUpdate is a partial update of an invoice's mutable delivery fields.
// Nil fields are left untouched; financial fields can never be modified
// through this path.
type DeliveryUpdate struct {
	WhatsAppStatus     *WhatsAppStatus
	LastNotification   *time.Time
	NotificationMethod *NotificationMethod
	PaymentStatus      *PaymentStatus
	Status             *string
	PDFURL             *string
}

// InvoiceStore is the canonical persistence interface for invoices. It is the
// only writer of invoice state.
type InvoiceStore interface {
	// Create persists a fully populated invoice and returns the stored record.
	Create(ctx context.Context, inv *Invoice) (*Invoice, error)

	// GetByID returns ErrInvoiceNotFound when no record matches.
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// NumberExists reports whether an invoice with the given number is
	// already persisted. Used by the allocator's collision pre-check.
	NumberExists(ctx context.Context, invoiceNumber string) (bool, error)

	// List returns invoices matching the filter, newest first.
	List(ctx context.Context, filter InvoiceFilter) ([]Invoice, error)

	// UpdateDelivery applies a partial update to delivery/artifact fields and
	// returns the updated record.
	UpdateDelivery(ctx context.Context, id uuid.UUID, upd DeliveryUpdate) (*Invoice, error)
}

// InvoiceService drives the invoice lifecycle: validation, totals, number
// allocation, persistence, and best-effort artifact rendering.
type InvoiceService interface {
	// Create validates the draft, computes totals, allocates a unique number,
	// persists the invoice, and attempts PDF rendering. A rendering failure
	// never fails the creation; the artifact reference is left empty.
	Create(ctx context.Context, draft InvoiceDraft, principal *Principal) (*Invoice, error)

	// Get returns the invoice, enforcing ownership.
	Get(ctx context.Context, invoiceID string, principal *Principal) (*Invoice, error)

	// List returns invoices visible to the principal, newest first.
	List(ctx context.Context, filter InvoiceFilter, principal *Principal) ([]Invoice, error)

	// RenderPDF regenerates the artifact on demand. Unlike creation, a
	// rendering failure here surfaces to the caller.
	RenderPDF(ctx context.Context, invoiceID string, principal *Principal) (string, error)

	// DownloadPDF streams the stored artifact. The caller must close the
	// reader. Fails when no artifact has been rendered.
	DownloadPDF(ctx context.Context, invoiceID string, principal *Principal) (io.ReadCloser, *Invoice, error)

	// MarkPaymentStatus records the outcome of a payment event against an
	// invoice. Used by the payment webhook; not ownership-checked because the
	// caller is the payment provider, not a user.
	MarkPaymentStatus(ctx context.Context, invoiceID string, status PaymentStatus) error
}

// DeliveryReceipt is the provider acknowledgement for a single outbound message.
type DeliveryReceipt struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

// CombinedResult reports the outcome of a combined text+media notification.
type CombinedResult struct {
	InvoiceNumber string           `json:"invoiceNumber"`
	TextSent      bool             `json:"textSent"`
	PDFSent       bool             `json:"pdfSent"`
	Text          *DeliveryReceipt `json:"text,omitempty"`
	Media         *DeliveryReceipt `json:"media,omitempty"`
}

// SendInvoiceParams parameterizes a WhatsApp document send.
type SendInvoiceParams struct {
	// To overrides the invoice's stored phone number when set.
	To string
	// Message overrides the default composed message when set.
	Message string
}

// SendTextParams parameterizes a freeform WhatsApp text send.
type SendTextParams struct {
	To      string
	Message string
	// InvoiceID optionally links the send to an invoice whose delivery
	// status is updated with the outcome.
	InvoiceID string
}

// SendEmailParams parameterizes the email channel.
type SendEmailParams struct {
	// To overrides the invoice's stored email when set.
	To      string
	Subject string
	HTML    string
}

// NotificationService dispatches invoices and freeform messages over outbound
// channels and records the outcome on the invoice record.
type NotificationService interface {
	// SendInvoiceWhatsApp sends the rendered PDF as a WhatsApp media message.
	// Requires a rendered artifact and a resolvable recipient. The delivery
	// status is recorded even when the provider call fails.
	SendInvoiceWhatsApp(ctx context.Context, invoiceID string, params SendInvoiceParams, principal *Principal) (*DeliveryReceipt, error)

	// SendText sends a freeform WhatsApp text, optionally updating a linked
	// invoice's delivery status.
	SendText(ctx context.Context, params SendTextParams) (*DeliveryReceipt, error)

	// SendComplete performs the combined notification: text first, then, if
	// the invoice has an artifact, the PDF as media. The media leg is only
	// attempted after a successful text leg.
	SendComplete(ctx context.Context, invoiceID string, message string, principal *Principal) (*CombinedResult, error)

	// SendInvoiceEmail validates and acknowledges an email send. The email
	// channel is a stub: no provider call is made and no invoice state is
	// mutated.
	SendInvoiceEmail(ctx context.Context, invoiceID string, params SendEmailParams, principal *Principal) error
}
