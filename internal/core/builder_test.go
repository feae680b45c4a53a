package core_test

import (
	"errors"
	"testing"

	"proposal-studio/internal/core"

	"github.com/shopspring/decimal"
)

func testCatalog() []core.CatalogItem {
	return []core.CatalogItem{
		{ID: 1, Name: "Widget A", UnitPrice: dec("500"), Category: "Hardware"},
		{ID: 2, Name: "Consulting", UnitPrice: dec("12000"), Category: "Services"},
		{ID: 3, Name: "Support Plan", UnitPrice: dec("299.99"), Category: "Services"},
	}
}

func newTestSession(t *testing.T) *core.Session {
	t.Helper()
	return core.NewSession("PRO-2026-00001", "tester", testCatalog(), nil)
}

func TestSession_AddItem_MergesByCatalogItem(t *testing.T) {
	s := newTestSession(t)

	first, err := s.AddItem(1, core.LineInput{Quantity: 2, DiscountPercent: dec("15"), Taxable: true})
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	// Second add of the same catalog item merges: quantity bump only, the
	// existing price/discount/tax fields stay as they were.
	override := dec("9999")
	merged, err := s.AddItem(1, core.LineInput{Quantity: 3, UnitPrice: &override, DiscountPercent: dec("50"), Taxable: false})
	if err != nil {
		t.Fatalf("second AddItem failed: %v", err)
	}

	lines := s.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected exactly one line after merge, got %d", len(lines))
	}
	if merged.ID != first.ID {
		t.Errorf("merge created a new line id")
	}
	if merged.Quantity != 5 {
		t.Errorf("Quantity = %d, want 5", merged.Quantity)
	}
	if !merged.UnitPrice.Equal(dec("500")) {
		t.Errorf("merge overwrote unit price: %s", merged.UnitPrice)
	}
	if !merged.DiscountPercent.Equal(dec("15")) {
		t.Errorf("merge overwrote discount: %s", merged.DiscountPercent)
	}
	if !merged.Taxable {
		t.Errorf("merge overwrote taxable flag")
	}
}

func TestSession_AddItem_InvalidQuantity(t *testing.T) {
	s := newTestSession(t)

	for _, qty := range []int{0, -1, -100} {
		_, err := s.AddItem(1, core.LineInput{Quantity: qty, Taxable: true})
		if !errors.Is(err, core.ErrInvalidQuantity) {
			t.Errorf("qty %d: expected ErrInvalidQuantity, got %v", qty, err)
		}
	}
	if len(s.Lines()) != 0 {
		t.Errorf("rejected adds must not mutate the line-item set")
	}
}

func TestSession_AddItem_Validation(t *testing.T) {
	s := newTestSession(t)

	negPrice := dec("-1")
	if _, err := s.AddItem(1, core.LineInput{Quantity: 1, UnitPrice: &negPrice, Taxable: true}); !errors.Is(err, core.ErrInvalidPrice) {
		t.Errorf("expected ErrInvalidPrice, got %v", err)
	}
	if _, err := s.AddItem(1, core.LineInput{Quantity: 1, DiscountPercent: dec("101"), Taxable: true}); !errors.Is(err, core.ErrInvalidDiscount) {
		t.Errorf("expected ErrInvalidDiscount, got %v", err)
	}
	if _, err := s.AddItem(99, core.LineInput{Quantity: 1, Taxable: true}); !errors.Is(err, core.ErrCatalogItemNotFound) {
		t.Errorf("unknown catalog item: expected ErrCatalogItemNotFound, got %v", err)
	}
	if len(s.Lines()) != 0 {
		t.Errorf("rejected adds must not mutate the line-item set")
	}
}

func TestSession_AddItem_PriceOverride(t *testing.T) {
	s := newTestSession(t)

	override := dec("450.50")
	line, err := s.AddItem(1, core.LineInput{Quantity: 1, UnitPrice: &override, Taxable: true})
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if !line.UnitPrice.Equal(override) {
		t.Errorf("UnitPrice = %s, want override 450.50", line.UnitPrice)
	}

	catalogPriced, err := s.AddItem(2, core.LineInput{Quantity: 1, Taxable: true})
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if !catalogPriced.UnitPrice.Equal(dec("12000")) {
		t.Errorf("UnitPrice = %s, want catalog price 12000", catalogPriced.UnitPrice)
	}
}

func TestSession_DuplicateLine_NeverMerges(t *testing.T) {
	s := newTestSession(t)

	orig, err := s.AddItem(1, core.LineInput{Quantity: 5, DiscountPercent: dec("10"), Taxable: true})
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	clone, err := s.DuplicateLine(orig.ID)
	if err != nil {
		t.Fatalf("DuplicateLine failed: %v", err)
	}

	lines := s.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 independent lines, got %d", len(lines))
	}
	if clone.ID == orig.ID {
		t.Errorf("duplicate must get a fresh id")
	}
	if clone.Quantity != 5 || lines[0].Quantity != 5 {
		t.Errorf("quantities after duplicate: %d and %d, want 5 and 5", lines[0].Quantity, clone.Quantity)
	}
	if clone.CatalogItemID != orig.CatalogItemID {
		t.Errorf("duplicate must keep the catalog item reference")
	}

	if _, err := s.DuplicateLine("missing-id"); !errors.Is(err, core.ErrLineNotFound) {
		t.Errorf("expected ErrLineNotFound, got %v", err)
	}
}

func TestSession_RemoveLine_Idempotent(t *testing.T) {
	s := newTestSession(t)

	line, err := s.AddItem(1, core.LineInput{Quantity: 1, Taxable: true})
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	if err := s.RemoveLine(line.ID); err != nil {
		t.Fatalf("RemoveLine failed: %v", err)
	}
	if len(s.Lines()) != 0 {
		t.Fatalf("line not removed")
	}
	// Removing an absent id is a no-op, not an error.
	if err := s.RemoveLine(line.ID); err != nil {
		t.Errorf("second remove should be a no-op, got %v", err)
	}
	if err := s.RemoveLine("never-existed"); err != nil {
		t.Errorf("removing unknown id should be a no-op, got %v", err)
	}
}

func TestSession_UpdateLine_RecomputesTotal(t *testing.T) {
	s := newTestSession(t)
	if err := s.UpdateHeader(core.HeaderPatch{TaxRate: decPtr("10")}); err != nil {
		t.Fatalf("UpdateHeader failed: %v", err)
	}

	line, err := s.AddItem(2, core.LineInput{Quantity: 2, DiscountPercent: dec("10"), Taxable: true})
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if !line.LineTotal.Equal(dec("23760")) {
		t.Fatalf("LineTotal = %s, want 23760", line.LineTotal)
	}

	qty := 4
	updated, err := s.UpdateLine(line.ID, core.LinePatch{Quantity: &qty})
	if err != nil {
		t.Fatalf("UpdateLine failed: %v", err)
	}
	if !updated.LineTotal.Equal(dec("47520")) {
		t.Errorf("LineTotal after quantity change = %s, want 47520", updated.LineTotal)
	}

	taxable := false
	updated, err = s.UpdateLine(line.ID, core.LinePatch{Taxable: &taxable})
	if err != nil {
		t.Fatalf("UpdateLine failed: %v", err)
	}
	if !updated.LineTotal.Equal(dec("43200")) {
		t.Errorf("LineTotal after tax toggle = %s, want 43200", updated.LineTotal)
	}

	if _, err := s.UpdateLine("missing-id", core.LinePatch{Quantity: &qty}); !errors.Is(err, core.ErrLineNotFound) {
		t.Errorf("expected ErrLineNotFound, got %v", err)
	}

	bad := 0
	if _, err := s.UpdateLine(line.ID, core.LinePatch{Quantity: &bad}); !errors.Is(err, core.ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestSession_UpdateHeader_TaxRateRecomputesAllLines(t *testing.T) {
	s := newTestSession(t)

	taxed, err := s.AddItem(1, core.LineInput{Quantity: 2, Taxable: true})
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	untaxed, err := s.AddItem(2, core.LineInput{Quantity: 1, Taxable: false})
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	if err := s.UpdateHeader(core.HeaderPatch{TaxRate: decPtr("20")}); err != nil {
		t.Fatalf("UpdateHeader failed: %v", err)
	}

	lines := s.Lines()
	for _, l := range lines {
		switch l.ID {
		case taxed.ID:
			if !l.LineTotal.Equal(dec("1200")) {
				t.Errorf("taxable line total = %s, want 1200", l.LineTotal)
			}
		case untaxed.ID:
			if !l.LineTotal.Equal(dec("12000")) {
				t.Errorf("non-taxable line total = %s, want 12000", l.LineTotal)
			}
		}
	}

	if err := s.UpdateHeader(core.HeaderPatch{TaxRate: decPtr("101")}); !errors.Is(err, core.ErrInvalidTaxRate) {
		t.Errorf("expected ErrInvalidTaxRate, got %v", err)
	}
}

func TestSession_PendingInputResetsAfterAdd(t *testing.T) {
	s := newTestSession(t)

	override := dec("450")
	s.StagePendingInput(1, core.LineInput{Quantity: 7, UnitPrice: &override, DiscountPercent: dec("25"), Taxable: false})

	staged := s.PendingInput(1)
	if staged.Quantity != 7 || staged.UnitPrice == nil {
		t.Fatalf("staged input not retained: %+v", staged)
	}

	if _, err := s.AddItem(1, staged); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	got := s.PendingInput(1)
	want := core.DefaultLineInput()
	if got.Quantity != want.Quantity || got.UnitPrice != nil ||
		!got.DiscountPercent.Equal(want.DiscountPercent) || got.Taxable != want.Taxable {
		t.Errorf("pending input after add = %+v, want defaults %+v", got, want)
	}
}

func TestSession_DirtyTracking(t *testing.T) {
	s := newTestSession(t)
	if s.Dirty() {
		t.Fatalf("fresh session must not be dirty")
	}
	if _, err := s.AddItem(1, core.LineInput{Quantity: 1, Taxable: true}); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if !s.Dirty() {
		t.Errorf("session must be dirty after an edit")
	}
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
