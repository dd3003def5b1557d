package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/billwave/billwave/internal/domain"
	"github.com/billwave/billwave/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validDraft() domain.InvoiceDraft {
	return domain.InvoiceDraft{
		ClientName:    "Acme Corp",
		CustomerPhone: "+14155550100",
		CustomerEmail: "billing@acme.test",
		Items: []domain.LineItem{
			{Name: "Consulting", Quantity: 10, UnitPrice: 150, TaxPercent: 10},
			{Name: "Support", Quantity: 2, UnitPrice: 75, DiscountPercent: 5},
		},
		DueDate:      time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		PaymentTerms: "Net 30",
	}
}

func TestInvoiceService_Create(t *testing.T) {
	store := newMockInvoiceStore()
	renderer := &mockRenderer{}
	svc := NewInvoiceService(store, renderer, nil, testLogger())

	inv, err := svc.Create(context.Background(), validDraft(), nil)
	require.NoError(t, err)

	// Totals derived from items
	assert.InDelta(t, 1650.0, inv.SubTotal, 1e-9)
	assert.InDelta(t, 150.0, inv.TotalTax, 1e-9)
	assert.InDelta(t, 7.5, inv.TotalDiscount, 1e-9)
	assert.InDelta(t, inv.SubTotal+inv.TotalTax-inv.TotalDiscount, inv.TotalAmount, 1e-9)

	// Number minted with the timestamp scheme
	assert.True(t, strings.HasPrefix(inv.InvoiceNumber, "INV-"))

	// First render recorded on the stored invoice
	require.NotNil(t, inv.PDFURL)
	assert.Equal(t, "/public/invoices/"+inv.InvoiceNumber+".pdf", *inv.PDFURL)

	assert.Equal(t, domain.PaymentPending, inv.PaymentStatus)
	assert.Equal(t, domain.StatusNotSent, inv.WhatsAppStatus)
	assert.Nil(t, inv.CreatedBy)
}

func TestInvoiceService_Create_KeepsRequestedNumber(t *testing.T) {
	store := newMockInvoiceStore()
	svc := NewInvoiceService(store, &mockRenderer{}, nil, testLogger())

	draft := validDraft()
	draft.InvoiceNumber = "INV-CUSTOM-7"

	inv, err := svc.Create(context.Background(), draft, nil)
	require.NoError(t, err)
	assert.Equal(t, "INV-CUSTOM-7", inv.InvoiceNumber)
}

func TestInvoiceService_Create_MintsOnCollision(t *testing.T) {
	store := newMockInvoiceStore()
	store.seed(domain.Invoice{InvoiceNumber: "INV-TAKEN"})
	svc := NewInvoiceService(store, &mockRenderer{}, nil, testLogger())

	draft := validDraft()
	draft.InvoiceNumber = "INV-TAKEN"

	inv, err := svc.Create(context.Background(), draft, nil)
	require.NoError(t, err)
	assert.NotEqual(t, "INV-TAKEN", inv.InvoiceNumber)
	assert.True(t, strings.HasPrefix(inv.InvoiceNumber, "INV-"))
}

func TestInvoiceService_Create_SurvivesRenderFailure(t *testing.T) {
	store := newMockInvoiceStore()
	renderer := &mockRenderer{
		RenderFunc: func(ctx context.Context, inv *domain.Invoice) (string, error) {
			return "", errors.New("font cache corrupted")
		},
	}
	svc := NewInvoiceService(store, renderer, nil, testLogger())

	inv, err := svc.Create(context.Background(), validDraft(), nil)
	require.NoError(t, err)
	assert.Nil(t, inv.PDFURL)

	// The record is persisted despite the failed render
	stored, err := store.GetByID(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PDFURL)
}

func TestInvoiceService_Create_Validation(t *testing.T) {
	svc := NewInvoiceService(newMockInvoiceStore(), &mockRenderer{}, nil, testLogger())

	tests := []struct {
		name   string
		mutate func(*domain.InvoiceDraft)
	}{
		{"missing client name", func(d *domain.InvoiceDraft) { d.ClientName = "" }},
		{"missing phone", func(d *domain.InvoiceDraft) { d.CustomerPhone = "" }},
		{"missing due date", func(d *domain.InvoiceDraft) { d.DueDate = time.Time{} }},
		{"missing payment terms", func(d *domain.InvoiceDraft) { d.PaymentTerms = "" }},
		{"no items", func(d *domain.InvoiceDraft) { d.Items = nil }},
		{"zero quantity", func(d *domain.InvoiceDraft) { d.Items[0].Quantity = 0 }},
		{"negative price", func(d *domain.InvoiceDraft) { d.Items[0].UnitPrice = -1 }},
		{"unnamed item", func(d *domain.InvoiceDraft) { d.Items[0].Name = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft()
			tt.mutate(&draft)

			_, err := svc.Create(context.Background(), draft, nil)
			require.Error(t, err)
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
		})
	}
}

func TestInvoiceService_Get_Ownership(t *testing.T) {
	store := newMockInvoiceStore()
	svc := NewInvoiceService(store, &mockRenderer{}, nil, testLogger())

	owner := uuid.New()
	other := uuid.New()
	owned := store.seed(domain.Invoice{InvoiceNumber: "INV-1", CreatedBy: &owner})
	unowned := store.seed(domain.Invoice{InvoiceNumber: "INV-2"})

	ctx := context.Background()

	// Owner sees their invoice
	_, err := svc.Get(ctx, owned.ID.String(), &domain.Principal{ID: owner})
	assert.NoError(t, err)

	// Another user is forbidden
	_, err = svc.Get(ctx, owned.ID.String(), &domain.Principal{ID: other})
	assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))

	// Anonymous is forbidden from owned invoices
	_, err = svc.Get(ctx, owned.ID.String(), nil)
	assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))

	// Ownerless invoices are readable by anyone
	_, err = svc.Get(ctx, unowned.ID.String(), nil)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, unowned.ID.String(), &domain.Principal{ID: other})
	assert.NoError(t, err)
}

func TestInvoiceService_Get_NotFound(t *testing.T) {
	svc := NewInvoiceService(newMockInvoiceStore(), &mockRenderer{}, nil, testLogger())

	_, err := svc.Get(context.Background(), uuid.NewString(), nil)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))

	// Malformed IDs read as not found, not as validation failures
	_, err = svc.Get(context.Background(), "not-a-uuid", nil)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestInvoiceService_List_ScopesToOwner(t *testing.T) {
	store := newMockInvoiceStore()
	svc := NewInvoiceService(store, &mockRenderer{}, nil, testLogger())

	owner := uuid.New()
	other := uuid.New()
	store.seed(domain.Invoice{InvoiceNumber: "INV-MINE", CreatedBy: &owner})
	store.seed(domain.Invoice{InvoiceNumber: "INV-THEIRS", CreatedBy: &other})
	store.seed(domain.Invoice{InvoiceNumber: "INV-PUBLIC"})

	ctx := context.Background()

	// Authenticated lists are scoped to the caller's own invoices
	got, err := svc.List(ctx, domain.InvoiceFilter{}, &domain.Principal{ID: owner})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "INV-MINE", got[0].InvoiceNumber)

	// Anonymous callers see only ownerless records
	got, err = svc.List(ctx, domain.InvoiceFilter{}, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "INV-PUBLIC", got[0].InvoiceNumber)
}

func TestInvoiceService_List_FiltersClientNameSubstring(t *testing.T) {
	store := newMockInvoiceStore()
	svc := NewInvoiceService(store, &mockRenderer{}, nil, testLogger())

	store.seed(domain.Invoice{InvoiceNumber: "INV-1", ClientName: "Acme Corp"})
	store.seed(domain.Invoice{InvoiceNumber: "INV-2", ClientName: "Other Co"})

	// A lowercase fragment matches regardless of stored casing
	got, err := svc.List(context.Background(), domain.InvoiceFilter{ClientName: "acme"}, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Acme Corp", got[0].ClientName)
}

func TestInvoiceService_RenderPDF_SurfacesFailure(t *testing.T) {
	store := newMockInvoiceStore()
	inv := store.seed(domain.Invoice{InvoiceNumber: "INV-9"})
	renderer := &mockRenderer{
		RenderFunc: func(ctx context.Context, inv *domain.Invoice) (string, error) {
			return "", errors.New("render exploded")
		},
	}
	svc := NewInvoiceService(store, renderer, nil, testLogger())

	_, err := svc.RenderPDF(context.Background(), inv.ID.String(), nil)
	require.Error(t, err)
	assert.Equal(t, domain.EDEPENDENCY, domain.ErrorCode(err))
}

func TestInvoiceService_DownloadPDF(t *testing.T) {
	dir := t.TempDir()
	files, err := storage.NewLocalStorage(dir, "/public")
	require.NoError(t, err)

	store := newMockInvoiceStore()
	svc := NewInvoiceService(store, &mockRenderer{}, files, testLogger())

	// No artifact yet
	bare := store.seed(domain.Invoice{InvoiceNumber: "INV-NOPDF"})
	_, _, err = svc.DownloadPDF(context.Background(), bare.ID.String(), nil)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))

	// Record claims an artifact but storage has nothing for it
	goneURL := "/public/invoices/INV-GONE.pdf"
	gone := store.seed(domain.Invoice{InvoiceNumber: "INV-GONE", PDFURL: &goneURL})
	_, _, err = svc.DownloadPDF(context.Background(), gone.ID.String(), nil)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))

	// With artifact
	_, err = files.Put(context.Background(), "invoices/INV-OK.pdf", strings.NewReader("%PDF-1.4 test"), "application/pdf")
	require.NoError(t, err)
	url := "/public/invoices/INV-OK.pdf"
	ready := store.seed(domain.Invoice{InvoiceNumber: "INV-OK", PDFURL: &url})

	rc, inv, err := svc.DownloadPDF(context.Background(), ready.ID.String(), nil)
	require.NoError(t, err)
	defer rc.Close()

	assert.Equal(t, "INV-OK", inv.InvoiceNumber)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Contains(t, string(data), "%PDF")
}

func TestInvoiceService_MarkPaymentStatus(t *testing.T) {
	store := newMockInvoiceStore()
	inv := store.seed(domain.Invoice{InvoiceNumber: "INV-PAY", Status: "pending"})
	svc := NewInvoiceService(store, &mockRenderer{}, nil, testLogger())

	err := svc.MarkPaymentStatus(context.Background(), inv.ID.String(), domain.PaymentPaid)
	require.NoError(t, err)

	updated, err := store.GetByID(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, updated.PaymentStatus)
	assert.Equal(t, "paid", updated.Status)
}
