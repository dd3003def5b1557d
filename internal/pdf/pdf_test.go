package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/billwave/billwave/internal/domain"
	"github.com/billwave/billwave/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInvoice() *domain.Invoice {
	return &domain.Invoice{
		InvoiceNumber: "INV-100",
		ClientName:    "Acme Corp",
		CustomerEmail: "billing@acme.test",
		InvoiceDate:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Items: []domain.LineItem{
			{Name: "Consulting", Quantity: 10, UnitPrice: 150},
		},
		SubTotal:    1500,
		TotalTax:    150,
		TotalAmount: 1650,
	}
}

func TestCompose_IncludesSenderBlock(t *testing.T) {
	doc := compose(sampleInvoice())
	doc.SetCompression(false)

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))

	body := buf.String()
	assert.Contains(t, body, "From:")
	assert.Contains(t, body, senderName)
	assert.Contains(t, body, senderAddress)
	assert.Contains(t, body, "Bill To:")
	assert.Contains(t, body, "Acme Corp")
}

func TestRender_StoresArtifact(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir(), "/public")
	require.NoError(t, err)

	svc := NewService(store)
	url, err := svc.Render(context.Background(), sampleInvoice())
	require.NoError(t, err)
	assert.Equal(t, "/public/invoices/INV-100.pdf", url)

	rc, err := store.Get(context.Background(), Key("INV-100"))
	require.NoError(t, err)
	defer rc.Close()

	head := make([]byte, 4)
	_, err = rc.Read(head)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(head))
}
