package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/billwave/billwave/internal/domain"
	"github.com/google/uuid"
)

// mockInvoiceStore is an in-memory domain.InvoiceStore for tests.
type mockInvoiceStore struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*domain.Invoice

	// CreateFunc and NumberExistsFunc override the default in-memory behavior
	CreateFunc       func(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error)
	NumberExistsFunc func(ctx context.Context, number string) (bool, error)

	CallLog []string
}

var _ domain.InvoiceStore = (*mockInvoiceStore)(nil)

func newMockInvoiceStore() *mockInvoiceStore {
	return &mockInvoiceStore{
		invoices: make(map[uuid.UUID]*domain.Invoice),
	}
}

func (m *mockInvoiceStore) Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallLog = append(m.CallLog, "Create")

	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, inv)
	}

	for _, existing := range m.invoices {
		if existing.InvoiceNumber == inv.InvoiceNumber {
			return nil, domain.ErrDuplicateInvoice
		}
	}

	stored := *inv
	stored.ID = uuid.New()
	m.invoices[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (m *mockInvoiceStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallLog = append(m.CallLog, "GetByID")

	inv, ok := m.invoices[id]
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	out := *inv
	return &out, nil
}

func (m *mockInvoiceStore) NumberExists(ctx context.Context, number string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallLog = append(m.CallLog, fmt.Sprintf("NumberExists(%s)", number))

	if m.NumberExistsFunc != nil {
		return m.NumberExistsFunc(ctx, number)
	}

	for _, inv := range m.invoices {
		if inv.InvoiceNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockInvoiceStore) List(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallLog = append(m.CallLog, "List")

	var out []domain.Invoice
	for _, inv := range m.invoices {
		if filter.InvoiceNumber != "" && inv.InvoiceNumber != filter.InvoiceNumber {
			continue
		}
		if !containsFold(inv.ClientName, filter.ClientName) {
			continue
		}
		if !containsFold(inv.CustomerEmail, filter.CustomerEmail) {
			continue
		}
		if filter.CreatedBy != nil && (inv.CreatedBy == nil || *inv.CreatedBy != *filter.CreatedBy) {
			continue
		}
		out = append(out, *inv)
	}
	return out, nil
}

// containsFold mirrors the store's ILIKE substring matching.
func containsFold(value, pattern string) bool {
	if pattern == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func (m *mockInvoiceStore) UpdateDelivery(ctx context.Context, id uuid.UUID, upd domain.DeliveryUpdate) (*domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallLog = append(m.CallLog, "UpdateDelivery")

	inv, ok := m.invoices[id]
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}

	if upd.PDFURL != nil {
		inv.PDFURL = upd.PDFURL
	}
	if upd.WhatsAppStatus != nil {
		inv.WhatsAppStatus = *upd.WhatsAppStatus
	}
	if upd.LastNotification != nil {
		inv.LastNotification = upd.LastNotification
	}
	if upd.NotificationMethod != nil {
		inv.NotificationMethod = upd.NotificationMethod
	}
	if upd.PaymentStatus != nil {
		inv.PaymentStatus = *upd.PaymentStatus
	}
	if upd.Status != nil {
		inv.Status = *upd.Status
	}

	out := *inv
	return &out, nil
}

// seed inserts an invoice directly, bypassing Create.
func (m *mockInvoiceStore) seed(inv domain.Invoice) *domain.Invoice {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if inv.WhatsAppStatus == "" {
		inv.WhatsAppStatus = domain.StatusNotSent
	}
	m.invoices[inv.ID] = &inv
	return &inv
}

// mockRenderer is a test pdf.Renderer.
type mockRenderer struct {
	RenderFunc func(ctx context.Context, inv *domain.Invoice) (string, error)
	Calls      int
}

func (m *mockRenderer) Render(ctx context.Context, inv *domain.Invoice) (string, error) {
	m.Calls++
	if m.RenderFunc != nil {
		return m.RenderFunc(ctx, inv)
	}
	return "/public/invoices/" + inv.InvoiceNumber + ".pdf", nil
}
