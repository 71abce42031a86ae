package inventory

import (
	"context"
	"errors"
	"testing"
)

type stubWriter struct {
	stock map[string]int64
	calls int
}

func (s *stubWriter) AdjustStock(ctx context.Context, productID string, delta int64, clampZero bool) (int64, error) {
	s.calls++
	current := s.stock[productID]
	next := current + delta
	if next < 0 {
		if !clampZero {
			return current, ErrInsufficientStock
		}
		next = 0
	}
	s.stock[productID] = next
	return next, nil
}

func TestDecrementUnitSold(t *testing.T) {
	w := &stubWriter{stock: map[string]int64{"p1": 10}}
	a := &Adjuster{Store: w}
	if err := a.Decrement(context.Background(), "p1", 4, false); err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if w.stock["p1"] != 6 {
		t.Fatalf("expected stock 6, got %d", w.stock["p1"])
	}
}

func TestDecrementRejectsNegativeStock(t *testing.T) {
	w := &stubWriter{stock: map[string]int64{"p1": 2}}
	a := &Adjuster{Store: w}
	err := a.Decrement(context.Background(), "p1", 5, false)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if w.stock["p1"] != 2 {
		t.Fatalf("stock must be untouched on rejection, got %d", w.stock["p1"])
	}
}

func TestDecrementWeightSoldClampsAtZero(t *testing.T) {
	w := &stubWriter{stock: map[string]int64{"rice": 200}}
	a := &Adjuster{Store: w}
	if err := a.Decrement(context.Background(), "rice", 500, true); err != nil {
		t.Fatalf("weight decrement must clamp, got %v", err)
	}
	if w.stock["rice"] != 0 {
		t.Fatalf("expected clamp to 0, got %d", w.stock["rice"])
	}
}

func TestIncrementRestoresStock(t *testing.T) {
	w := &stubWriter{stock: map[string]int64{"p1": 3}}
	a := &Adjuster{Store: w}
	if err := a.Increment(context.Background(), "p1", 2); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if w.stock["p1"] != 5 {
		t.Fatalf("expected stock 5, got %d", w.stock["p1"])
	}
}

func TestAdjusterRejectsNonPositiveQuantities(t *testing.T) {
	a := &Adjuster{Store: &stubWriter{stock: map[string]int64{}}}
	if err := a.Decrement(context.Background(), "p1", 0, false); err == nil {
		t.Fatal("zero decrement must be rejected")
	}
	if err := a.Increment(context.Background(), "p1", -1); err == nil {
		t.Fatal("negative increment must be rejected")
	}
}
