package inventory

import (
	"context"
	"errors"
	"fmt"
)

// ErrInsufficientStock is returned when a conditional decrement would push
// stock below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

// StockWriter applies an atomic stock delta. Implementations must perform
// the read-modify-write inside a storage transaction so concurrent registers
// cannot interleave. When clampZero is false the write is rejected with
// ErrInsufficientStock instead of clamping.
type StockWriter interface {
	AdjustStock(ctx context.Context, productID string, delta int64, clampZero bool) (int64, error)
}

// Adjuster moves stock for checkouts and returns. It runs after the sale is
// durably recorded; callers must surface failures instead of rolling the
// sale back.
type Adjuster struct {
	Store StockWriter
}

// Decrement reduces stock for a sold line. Unit-sold products reject a
// decrement that would go negative; weight-sold products clamp at zero
// because their lines are not stock-gated.
func (a *Adjuster) Decrement(ctx context.Context, productID string, quantity int64, soldByWeight bool) error {
	if a == nil || a.Store == nil {
		return errors.New("inventory adjuster not configured")
	}
	if quantity <= 0 {
		return fmt.Errorf("decrement quantity must be positive, got %d", quantity)
	}
	_, err := a.Store.AdjustStock(ctx, productID, -quantity, soldByWeight)
	if err != nil {
		return fmt.Errorf("decrement stock for %s: %w", productID, err)
	}
	return nil
}

// Increment restores stock for a returned line. There is no upper bound:
// a return logged against the wrong order can push stock above the original
// level, which is the operator's responsibility to reconcile.
func (a *Adjuster) Increment(ctx context.Context, productID string, quantity int64) error {
	if a == nil || a.Store == nil {
		return errors.New("inventory adjuster not configured")
	}
	if quantity <= 0 {
		return fmt.Errorf("increment quantity must be positive, got %d", quantity)
	}
	_, err := a.Store.AdjustStock(ctx, productID, quantity, false)
	if err != nil {
		return fmt.Errorf("increment stock for %s: %w", productID, err)
	}
	return nil
}
