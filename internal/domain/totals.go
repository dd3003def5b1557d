package domain

// CalculateTotals derives the monetary fields of an invoice from its line
// items. Per-line tax and discount are percentages of the line's extended
// price (quantity x unit price).
//
// Arithmetic is plain float64 and results are stored exactly as computed;
// introducing rounding here would change persisted totals.
func CalculateTotals(items []LineItem) Totals {
	var t Totals

	for _, it := range items {
		extended := it.Quantity * it.UnitPrice
		t.SubTotal += extended
		t.TotalTax += it.TaxPercent / 100 * extended
		t.TotalDiscount += it.DiscountPercent / 100 * extended
	}

	t.TotalAmount = t.SubTotal + t.TotalTax - t.TotalDiscount
	return t
}
