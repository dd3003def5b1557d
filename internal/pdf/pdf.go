// Package pdf renders invoice documents and stores them as retrievable artifacts.
package pdf

import (
	"bytes"
	"context"
	"fmt"

	"github.com/billwave/billwave/internal/domain"
	"github.com/billwave/billwave/internal/storage"
	"github.com/go-pdf/fpdf"
)

// Sender identity printed on every invoice.
const (
	senderName    = "BillWave"
	senderAddress = "123 Business Street, City"
	senderEmail   = "billing@billwave.example"
)

// Renderer produces the invoice PDF artifact and returns its public URL.
type Renderer interface {
	Render(ctx context.Context, inv *domain.Invoice) (string, error)
}

// Service renders invoices with fpdf and persists them through a Storage
// backend. Rendering the same invoice twice overwrites the previous artifact.
type Service struct {
	store storage.Storage
}

// Compile-time check that Service implements Renderer.
var _ Renderer = (*Service)(nil)

// NewService creates a PDF rendering service backed by the given storage.
func NewService(store storage.Storage) *Service {
	return &Service{store: store}
}

// Key returns the storage key for an invoice's PDF artifact.
func Key(invoiceNumber string) string {
	return fmt.Sprintf("invoices/%s.pdf", invoiceNumber)
}

// Render generates the invoice document and uploads it, returning the URL.
func (s *Service) Render(ctx context.Context, inv *domain.Invoice) (string, error) {
	var buf bytes.Buffer
	if err := compose(inv).Output(&buf); err != nil {
		return "", fmt.Errorf("failed to render invoice PDF: %w", err)
	}

	url, err := s.store.Put(ctx, Key(inv.InvoiceNumber), &buf, "application/pdf")
	if err != nil {
		return "", fmt.Errorf("failed to store invoice PDF: %w", err)
	}

	return url, nil
}

// compose lays out the invoice document.
func compose(inv *domain.Invoice) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 12, "INVOICE", "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, fmt.Sprintf("Invoice No: %s", inv.InvoiceNumber), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Date: %s", inv.InvoiceDate.Format("02 Jan 2006")), "", 1, "R", false, 0, "")
	if !inv.DueDate.IsZero() {
		pdf.CellFormat(0, 5, fmt.Sprintf("Due: %s", inv.DueDate.Format("02 Jan 2006")), "", 1, "R", false, 0, "")
	}
	pdf.Ln(8)

	// Sender block
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "From:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, senderName, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, senderAddress, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, senderEmail, "", 1, "L", false, 0, "")
	pdf.Ln(6)

	// Bill To block
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Bill To:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, inv.ClientName, "", 1, "L", false, 0, "")
	if inv.ClientAddress != "" {
		pdf.MultiCell(0, 5, inv.ClientAddress, "", "L", false)
	}
	if inv.CustomerEmail != "" {
		pdf.CellFormat(0, 5, inv.CustomerEmail, "", 1, "L", false, 0, "")
	}
	if inv.CustomerPhone != "" {
		pdf.CellFormat(0, 5, inv.CustomerPhone, "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	// Items table
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(90, 8, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 8, "Qty", "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 8, "Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 8, "Total", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range inv.Items {
		lineTotal := item.Quantity * item.UnitPrice
		pdf.CellFormat(90, 7, item.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, trimNumber(item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", lineTotal), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// Totals block
	totalRow := func(label string, value float64, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(150, 6, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", value), "", 1, "R", false, 0, "")
	}

	totalRow("Subtotal:", inv.SubTotal, false)
	if inv.TotalTax != 0 {
		totalRow("Tax:", inv.TotalTax, false)
	}
	if inv.TotalDiscount != 0 {
		totalRow("Discount:", -inv.TotalDiscount, false)
	}
	totalRow("Total:", inv.TotalAmount, true)
	pdf.Ln(8)

	if inv.PaymentTerms != "" {
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 5, fmt.Sprintf("Payment terms: %s", inv.PaymentTerms), "", 1, "L", false, 0, "")
	}
	if inv.Notes != "" {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(0, 5, inv.Notes, "", "L", false)
	}

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, 6, "Thank you for your business!", "", 1, "C", false, 0, "")

	return pdf
}

// trimNumber formats a quantity without trailing zeros (3, not 3.00).
func trimNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
