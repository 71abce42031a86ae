package pricing

import (
	"math"
	"testing"
)

func TestLineTotalUnit(t *testing.T) {
	line := Line{UnitPrice: 100, Quantity: 2}
	if got := line.LineTotal(); got != 200 {
		t.Fatalf("expected line total 200, got %v", got)
	}
}

func TestLineTotalWeight(t *testing.T) {
	// 200 per kilogram, 250 grams
	line := Line{UnitPrice: 200, Quantity: 250, SoldByWeight: true}
	if got := line.LineTotal(); got != 50 {
		t.Fatalf("expected line total 50, got %v", got)
	}
}

func TestSubtotalSumsLines(t *testing.T) {
	lines := []Line{
		{UnitPrice: 100, Quantity: 2},
		{UnitPrice: 200, Quantity: 250, SoldByWeight: true},
	}
	if got := Subtotal(lines); got != 250 {
		t.Fatalf("expected subtotal 250, got %v", got)
	}
}

func TestSettlePlain(t *testing.T) {
	s := Settle(200, 0, 18)
	if s.Taxable != 200 || s.Tax != 36 || s.Total != 236 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestSettleWithDiscount(t *testing.T) {
	s := Settle(200, 50, 18)
	if s.Taxable != 150 {
		t.Fatalf("expected taxable 150, got %v", s.Taxable)
	}
	if s.Tax != 27 {
		t.Fatalf("expected tax 27, got %v", s.Tax)
	}
	if s.Total != 177 {
		t.Fatalf("expected total 177, got %v", s.Total)
	}
}

func TestSettleDiscountExceedingSubtotal(t *testing.T) {
	s := Settle(100, 150, 18)
	if s.Taxable != 0 {
		t.Fatalf("taxable must floor at zero, got %v", s.Taxable)
	}
	if s.Total != 0 {
		t.Fatalf("expected total 0, got %v", s.Total)
	}
}

func TestValidateSplit(t *testing.T) {
	if err := ValidateSplit(100, 77.4, 177); err != nil {
		t.Fatalf("split within tolerance rejected: %v", err)
	}
	if err := ValidateSplit(100, 76, 177); err == nil {
		t.Fatal("split beyond tolerance accepted")
	}
}

func TestSettleZeroTax(t *testing.T) {
	s := Settle(99.5, 0, 0)
	if s.Tax != 0 || math.Abs(s.Total-99.5) > 1e-9 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}
