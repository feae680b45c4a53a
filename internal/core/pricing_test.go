package core_test

import (
	"testing"

	"proposal-studio/internal/core"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPricing_ReferenceLine(t *testing.T) {
	// unitPrice=12000, qty=2, discount=10%, taxable, taxRate=10%
	line := core.LineItem{
		Quantity:        2,
		UnitPrice:       dec("12000"),
		DiscountPercent: dec("10"),
		Taxable:         true,
	}
	taxRate := dec("10")

	if got := core.LineSubtotal(line); !got.Equal(dec("24000")) {
		t.Errorf("LineSubtotal = %s, want 24000", got)
	}
	if got := core.LineDiscount(line); !got.Equal(dec("2400")) {
		t.Errorf("LineDiscount = %s, want 2400", got)
	}
	if got := core.LineNet(line); !got.Equal(dec("21600")) {
		t.Errorf("LineNet = %s, want 21600", got)
	}
	if got := core.ComputeLineTotal(line, taxRate); !got.Equal(dec("23760")) {
		t.Errorf("ComputeLineTotal = %s, want 23760", got)
	}

	totals := core.ComputeTotals([]core.LineItem{line}, taxRate)
	if !totals.TaxAmount.Equal(dec("2160")) {
		t.Errorf("TaxAmount = %s, want 2160", totals.TaxAmount)
	}
	if !totals.GrandTotal.Equal(dec("23760")) {
		t.Errorf("GrandTotal = %s, want 23760", totals.GrandTotal)
	}
}

func TestPricing_ComputeTotals(t *testing.T) {
	tests := []struct {
		name          string
		lines         []core.LineItem
		taxRate       decimal.Decimal
		subtotal      string
		totalDiscount string
		taxableBase   string
		taxAmount     string
		grandTotal    string
	}{
		{
			name:          "empty line-item set yields all zeros",
			lines:         nil,
			taxRate:       dec("18"),
			subtotal:      "0",
			totalDiscount: "0",
			taxableBase:   "0",
			taxAmount:     "0",
			grandTotal:    "0",
		},
		{
			name: "non-taxable line contributes nothing to tax",
			lines: []core.LineItem{
				{Quantity: 3, UnitPrice: dec("100"), Taxable: false},
			},
			taxRate:       dec("25"),
			subtotal:      "300",
			totalDiscount: "0",
			taxableBase:   "0",
			taxAmount:     "0",
			grandTotal:    "300",
		},
		{
			name: "zero tax rate yields zero tax regardless of taxable flags",
			lines: []core.LineItem{
				{Quantity: 2, UnitPrice: dec("150"), Taxable: true},
				{Quantity: 1, UnitPrice: dec("50"), Taxable: true},
			},
			taxRate:       dec("0"),
			subtotal:      "350",
			totalDiscount: "0",
			taxableBase:   "350",
			taxAmount:     "0",
			grandTotal:    "350",
		},
		{
			name: "mixed taxable and discounted lines",
			lines: []core.LineItem{
				{Quantity: 2, UnitPrice: dec("12000"), DiscountPercent: dec("10"), Taxable: true},
				{Quantity: 5, UnitPrice: dec("80"), DiscountPercent: dec("0"), Taxable: false},
				{Quantity: 1, UnitPrice: dec("999.99"), DiscountPercent: dec("50"), Taxable: true},
			},
			taxRate:       dec("10"),
			subtotal:      "25399.99",
			totalDiscount: "2899.995",
			taxableBase:   "22099.995",
			taxAmount:     "2209.9995",
			grandTotal:    "24709.9945",
		},
		{
			name: "fractional discounts keep exact intermediates",
			lines: []core.LineItem{
				{Quantity: 3, UnitPrice: dec("33.33"), DiscountPercent: dec("7.5"), Taxable: true},
			},
			taxRate:       dec("8.25"),
			subtotal:      "99.99",
			totalDiscount: "7.49925",
			taxableBase:   "92.49075",
			taxAmount:     "7.6304868750",
			grandTotal:    "100.1212368750",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals := core.ComputeTotals(tt.lines, tt.taxRate)

			check := func(field string, got decimal.Decimal, want string) {
				if !got.Equal(dec(want)) {
					t.Errorf("%s = %s, want %s", field, got, want)
				}
			}
			check("Subtotal", totals.Subtotal, tt.subtotal)
			check("TotalDiscount", totals.TotalDiscount, tt.totalDiscount)
			check("TaxableBase", totals.TaxableBase, tt.taxableBase)
			check("TaxAmount", totals.TaxAmount, tt.taxAmount)
			check("GrandTotal", totals.GrandTotal, tt.grandTotal)

			// Aggregate derivation identity: subtotal − totalDiscount + taxAmount == grandTotal.
			derived := totals.Subtotal.Sub(totals.TotalDiscount).Add(totals.TaxAmount)
			if !derived.Equal(totals.GrandTotal) {
				t.Errorf("identity violated: %s − %s + %s = %s, grand total %s",
					totals.Subtotal, totals.TotalDiscount, totals.TaxAmount, derived, totals.GrandTotal)
			}
		})
	}
}

func TestPricing_NonTaxableLineTotalEqualsNet(t *testing.T) {
	line := core.LineItem{
		Quantity:        4,
		UnitPrice:       dec("250"),
		DiscountPercent: dec("20"),
		Taxable:         false,
	}
	// Tax rate must not leak into a non-taxable line total.
	for _, rate := range []string{"0", "10", "99"} {
		if got := core.ComputeLineTotal(line, dec(rate)); !got.Equal(dec("800")) {
			t.Errorf("rate %s: ComputeLineTotal = %s, want 800", rate, got)
		}
	}
}
