package sales

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/noah-isme/backend-pos/internal/pricing"
)

// ReturnLine selects how much of one original line comes back.
type ReturnLine struct {
	ProductID string  `json:"productId"`
	Quantity  float64 `json:"quantity"`
}

// StockRestorer puts returned quantities back into inventory.
type StockRestorer interface {
	Increment(ctx context.Context, productID string, quantity int64) error
}

// Returns reverses prior orders: a negated ledger record plus stock
// restoration. Coupon usage on the original sale is deliberately left
// untouched.
type Returns struct {
	Recorder *Recorder
	Stock    StockRestorer
}

// ErrPartialReturn wraps stock restoration failures that happen after the
// refund record is already written. The refund stands; inventory needs
// manual reconciliation.
var ErrPartialReturn = errors.New("return recorded but stock restoration incomplete")

// Process writes the refund record and restores stock for each returned
// line. Quantities above the originally sold amount are rejected before
// anything is written.
func (p *Returns) Process(ctx context.Context, originalOrderNumber string, lines []ReturnLine, refund float64) (Record, error) {
	if p == nil || p.Recorder == nil {
		return Record{}, errors.New("return processor not configured")
	}
	if len(lines) == 0 {
		return Record{}, errors.New("no return lines provided")
	}
	if refund <= 0 {
		return Record{}, fmt.Errorf("refund amount must be positive, got %v", refund)
	}
	original, err := p.Recorder.GetByOrderNumber(ctx, originalOrderNumber)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Record{}, fmt.Errorf("original order %s: %w", originalOrderNumber, err)
		}
		return Record{}, fmt.Errorf("look up original order: %w", err)
	}
	if original.IsReturn {
		return Record{}, fmt.Errorf("order %s is itself a return", originalOrderNumber)
	}

	sold := make(map[string]Item, len(original.Items))
	for _, it := range original.Items {
		sold[it.ProductID] = it
	}
	items := make([]Item, 0, len(lines))
	for _, line := range lines {
		origItem, ok := sold[line.ProductID]
		if !ok {
			return Record{}, fmt.Errorf("product %s was not part of order %s", line.ProductID, originalOrderNumber)
		}
		if line.Quantity <= 0 {
			return Record{}, fmt.Errorf("return quantity for %s must be positive", line.ProductID)
		}
		if line.Quantity > origItem.Quantity {
			return Record{}, fmt.Errorf("cannot return %v of %s, only %v were sold", line.Quantity, origItem.Title, origItem.Quantity)
		}
		lineTotal := pricing.Line{
			UnitPrice:    origItem.Price,
			Quantity:     line.Quantity,
			SoldByWeight: origItem.SoldByWeight,
		}.LineTotal()
		items = append(items, Item{
			ProductID:    origItem.ProductID,
			Title:        origItem.Title,
			Price:        origItem.Price,
			Quantity:     line.Quantity,
			Total:        -lineTotal,
			Notes:        "Returned",
			SoldByWeight: origItem.SoldByWeight,
		})
	}

	record, err := p.Recorder.Record(ctx, Record{
		OrderNumber:     "RET-" + original.OrderNumber,
		OriginalOrderID: original.OrderNumber,
		IsReturn:        true,
		Items:           items,
		Subtotal:        -refund,
		Discount:        0,
		Tax:             0,
		Total:           -refund,
		Currency:        original.Currency,
		PaymentMethod:   PayCash,
	})
	if err != nil {
		return Record{}, fmt.Errorf("record return: %w", err)
	}

	// The refund record is durable from here on. Stock failures must be
	// surfaced, never rolled back or swallowed.
	var restoreErr error
	if p.Stock != nil {
		for _, line := range lines {
			qty := int64(math.Round(line.Quantity))
			if err := p.Stock.Increment(ctx, line.ProductID, qty); err != nil {
				restoreErr = errors.Join(restoreErr, err)
			}
		}
	}
	if restoreErr != nil {
		return record, fmt.Errorf("%w: %v", ErrPartialReturn, restoreErr)
	}
	return record, nil
}
