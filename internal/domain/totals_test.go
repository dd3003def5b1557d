package domain_test

import (
	"testing"

	"github.com/billwave/billwave/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCalculateTotals(t *testing.T) {
	tests := []struct {
		name  string
		items []domain.LineItem
		want  domain.Totals
	}{
		{
			name:  "no items",
			items: nil,
			want:  domain.Totals{},
		},
		{
			name: "single item no tax no discount",
			items: []domain.LineItem{
				{Name: "Widget", Quantity: 3, UnitPrice: 10},
			},
			want: domain.Totals{SubTotal: 30, TotalAmount: 30},
		},
		{
			name: "tax and discount are percentages of the extended price",
			items: []domain.LineItem{
				{Name: "Widget", Quantity: 2, UnitPrice: 100, TaxPercent: 18, DiscountPercent: 10},
			},
			want: domain.Totals{
				SubTotal:      200,
				TotalTax:      36,
				TotalDiscount: 20,
				TotalAmount:   216,
			},
		},
		{
			name: "multiple items accumulate",
			items: []domain.LineItem{
				{Name: "A", Quantity: 1, UnitPrice: 50, TaxPercent: 10},
				{Name: "B", Quantity: 4, UnitPrice: 25, DiscountPercent: 5},
			},
			want: domain.Totals{
				SubTotal:      150,
				TotalTax:      5,
				TotalDiscount: 5,
				TotalAmount:   150,
			},
		},
		{
			name: "zero-valued fields are treated as zero",
			items: []domain.LineItem{
				{Name: "Unpriced"},
				{Name: "Quantity only", Quantity: 7},
			},
			want: domain.Totals{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.CalculateTotals(tt.items)
			assert.Equal(t, tt.want, got)
		})
	}
}

// The grand total identity must hold exactly, in float64 arithmetic, for any
// item set: totalAmount == subTotal + totalTax - totalDiscount.
func TestCalculateTotals_Identity(t *testing.T) {
	items := []domain.LineItem{
		{Name: "A", Quantity: 3, UnitPrice: 19.99, TaxPercent: 7.25, DiscountPercent: 2.5},
		{Name: "B", Quantity: 0.5, UnitPrice: 1234.56, TaxPercent: 18},
		{Name: "C", Quantity: 11, UnitPrice: 0.07, DiscountPercent: 50},
	}

	got := domain.CalculateTotals(items)
	assert.Equal(t, got.SubTotal+got.TotalTax-got.TotalDiscount, got.TotalAmount)
}

func TestWhatsAppStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to domain.WhatsAppStatus
		ok       bool
	}{
		{domain.StatusNotSent, domain.StatusSent, true},
		{domain.StatusNotSent, domain.StatusFailed, true},
		{domain.StatusSent, domain.StatusFailed, true},
		{domain.StatusNotSent, domain.StatusPartial, true},
		{domain.StatusFailed, domain.StatusSent, true},
		{domain.StatusPartial, domain.StatusSent, true},
		{domain.StatusDelivered, domain.StatusFailed, false},
		{domain.StatusNotSent, domain.StatusDelivered, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}
