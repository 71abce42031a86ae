package pricing

import (
	"fmt"
	"math"
)

// Money represents a monetary value as a decimal amount in the store
// currency. Amounts stay un-rounded until final display; weight pricing
// divides the per-kilogram price by 1000, which does not survive integer
// minor units.
type Money = float64

// SplitTolerance is the permitted gap between a cash+online split and the
// order total, absorbing manual rounding at the register.
const SplitTolerance Money = 0.5

// Line is an immutable snapshot of one cart entry. Price and title are
// captured at add-time and never re-read from the live product.
type Line struct {
	ProductID    string
	Title        string
	UnitPrice    Money
	Quantity     float64
	SoldByWeight bool
	Notes        string
}

// Summary aggregates computed settlement components.
type Summary struct {
	Subtotal Money
	Discount Money
	Taxable  Money
	Tax      Money
	Total    Money
}

// LineTotal prices a single line. Weight-sold products carry a
// per-kilogram unit price with quantity in grams.
func (l Line) LineTotal() Money {
	if l.SoldByWeight {
		return (l.UnitPrice / 1000) * l.Quantity
	}
	return l.UnitPrice * l.Quantity
}

// Subtotal sums line totals left to right.
func Subtotal(lines []Line) Money {
	var total Money
	for _, l := range lines {
		total += l.LineTotal()
	}
	return total
}

// Settle derives the payable breakdown from a subtotal, a discount and a
// tax percentage. The discount applies pre-tax and the taxable base never
// goes negative.
func Settle(subtotal, discount Money, taxPercent float64) Summary {
	taxable := subtotal - discount
	if taxable < 0 {
		taxable = 0
	}
	tax := taxable * taxPercent / 100
	return Summary{
		Subtotal: subtotal,
		Discount: discount,
		Taxable:  taxable,
		Tax:      tax,
		Total:    taxable + tax,
	}
}

// ValidateSplit checks that a split payment covers the total within
// SplitTolerance.
func ValidateSplit(cash, online, total Money) error {
	if math.Abs(cash+online-total) > SplitTolerance {
		return fmt.Errorf("split payment mismatch: cash %.2f + online %.2f does not cover total %.2f", cash, online, total)
	}
	return nil
}
