package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/noah-isme/backend-pos/internal/catalog"
	"github.com/noah-isme/backend-pos/internal/pricing"
)

// Reader reads current product state for stock gating.
type Reader interface {
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
}

// Shortfall describes one cart line that cannot be fulfilled.
type Shortfall struct {
	ProductID string `json:"productId"`
	Message   string `json:"message"`
}

// Validator gates checkout on persisted stock levels. It must run
// immediately before settlement commit, not only at cart-add time: stock can
// change between add and checkout when several registers share a catalog.
type Validator struct {
	Store Reader
}

// Check re-reads stock for every unit-sold line and reports shortfalls.
// Weight-sold lines are not stock-gated. Any read failure other than a
// missing document fails the whole validation: checkout fails closed.
func (v *Validator) Check(ctx context.Context, lines []pricing.Line) ([]Shortfall, error) {
	if v == nil || v.Store == nil {
		return nil, errors.New("stock validator not configured")
	}
	var shortfalls []Shortfall
	for _, line := range lines {
		if line.SoldByWeight {
			continue
		}
		product, err := v.Store.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				shortfalls = append(shortfalls, Shortfall{
					ProductID: line.ProductID,
					Message:   fmt.Sprintf("%s (Product not found)", line.Title),
				})
				continue
			}
			return nil, fmt.Errorf("validate stock for %s: %w", line.ProductID, err)
		}
		requested := int64(math.Round(line.Quantity))
		if requested > product.Stock {
			shortfalls = append(shortfalls, Shortfall{
				ProductID: line.ProductID,
				Message:   fmt.Sprintf("%s (Available: %d)", line.Title, product.Stock),
			})
		}
	}
	return shortfalls, nil
}
