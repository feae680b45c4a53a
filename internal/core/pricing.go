package core

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// Totals holds the proposal-level aggregates derived from the current line
// items and tax rate. Aggregates are always recomputed in full; nothing here
// is trusted across mutations.
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	TaxableBase   decimal.Decimal `json:"taxable_base"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
}

// LineSubtotal is the pre-discount, pre-tax value of a line: unit price × quantity.
func LineSubtotal(li LineItem) decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// LineDiscount is the monetary discount on a line: line subtotal × discount% / 100.
func LineDiscount(li LineItem) decimal.Decimal {
	return LineSubtotal(li).Mul(li.DiscountPercent).Div(oneHundred)
}

// LineNet is the post-discount, pre-tax value of a line.
func LineNet(li LineItem) decimal.Decimal {
	return LineSubtotal(li).Sub(LineDiscount(li))
}

// ComputeLineTotal derives the committed line total: net value plus tax when
// the line is taxable. taxRate is the proposal-level rate in percent.
func ComputeLineTotal(li LineItem, taxRate decimal.Decimal) decimal.Decimal {
	net := LineNet(li)
	if !li.Taxable {
		return net
	}
	return net.Add(net.Mul(taxRate).Div(oneHundred))
}

// ComputeTotals derives all proposal aggregates from the full line-item set.
// Intermediate sums stay exact; rounding happens only at display time
// (StringFixed against the final values), so per-line rounding error never
// compounds.
func ComputeTotals(lines []LineItem, taxRate decimal.Decimal) Totals {
	t := Totals{
		Subtotal:      decimal.Zero,
		TotalDiscount: decimal.Zero,
		TaxableBase:   decimal.Zero,
		TaxAmount:     decimal.Zero,
		GrandTotal:    decimal.Zero,
	}

	for _, li := range lines {
		t.Subtotal = t.Subtotal.Add(LineSubtotal(li))
		t.TotalDiscount = t.TotalDiscount.Add(LineDiscount(li))
		if li.Taxable {
			t.TaxableBase = t.TaxableBase.Add(LineNet(li))
		}
	}

	t.TaxAmount = t.TaxableBase.Mul(taxRate).Div(oneHundred)
	t.GrandTotal = t.Subtotal.Sub(t.TotalDiscount).Add(t.TaxAmount)
	return t
}

// validateQuantity rejects non-positive quantities. Rejection happens at
// entry; values are never silently clamped.
func validateQuantity(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// validateDiscount rejects discount percentages outside [0, 100].
func validateDiscount(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(oneHundred) {
		return ErrInvalidDiscount
	}
	return nil
}

// validatePrice rejects negative unit prices.
func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}

// validateTaxRate rejects proposal tax rates outside [0, 100].
func validateTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(oneHundred) {
		return ErrInvalidTaxRate
	}
	return nil
}
