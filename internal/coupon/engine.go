package coupon

import (
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/backend-pos/internal/pricing"
)

// DiscountType discriminates how a coupon value is interpreted.
type DiscountType string

const (
	// Percentage applies value as percentage points of the eligible base.
	Percentage DiscountType = "PERCENTAGE"
	// Fixed applies value as a flat currency amount.
	Fixed DiscountType = "FIXED"
)

// Coupon is the persisted coupon definition. MinPurchase and MaxDiscount
// use zero as "not set"; ExpiryDate is a calendar date string (YYYY-MM-DD),
// inclusive through the end of that day.
type Coupon struct {
	ID                   string       `json:"id" firestore:"-"`
	Code                 string       `json:"code" firestore:"code"`
	Type                 DiscountType `json:"type" firestore:"type"`
	Value                float64      `json:"value" firestore:"value"`
	MinPurchase          float64      `json:"minPurchase,omitempty" firestore:"minPurchase,omitempty"`
	MaxDiscount          float64      `json:"maxDiscount,omitempty" firestore:"maxDiscount,omitempty"`
	ApplicableProductIDs []string     `json:"applicableProductIds,omitempty" firestore:"applicableProductIds,omitempty"`
	ExpiryDate           string       `json:"expiryDate,omitempty" firestore:"expiryDate,omitempty"`
	IsActive             bool         `json:"isActive" firestore:"isActive"`
	UsageCount           int64        `json:"usageCount" firestore:"usageCount"`
	CreatedAt            time.Time    `json:"createdAt,omitempty" firestore:"createdAt,omitempty"`
}

// Result is the outcome of evaluating a coupon against a cart. Evaluation
// never mutates state; usage counting is a separate explicit step.
type Result struct {
	Valid    bool          `json:"valid"`
	Discount pricing.Money `json:"discount"`
	Reason   string        `json:"reason,omitempty"`
	CouponID string        `json:"couponId,omitempty"`
}

const expiryLayout = "2006-01-02"

// NormalizeCode canonicalises user-entered coupon codes.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func invalid(reason string) Result {
	return Result{Valid: false, Discount: 0, Reason: reason}
}

// Evaluate applies the discount rules in order, short-circuiting on the
// first failure. The caller resolves the coupon by normalized code; a
// missing coupon maps to the same reason as an inactive one.
func Evaluate(c Coupon, lines []pricing.Line, subtotal pricing.Money, now time.Time) Result {
	if !c.IsActive {
		return invalid("Invalid or inactive coupon")
	}
	if c.ExpiryDate != "" {
		// Expires starting the day after the expiry date: valid through
		// 23:59:59 of ExpiryDate.
		if expiry, err := time.ParseInLocation(expiryLayout, c.ExpiryDate, now.Location()); err == nil {
			today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			if expiry.Before(today) {
				return invalid("Coupon expired")
			}
		}
	}
	if c.MinPurchase > 0 && subtotal < c.MinPurchase {
		return invalid("Minimum purchase of " + formatAmount(c.MinPurchase) + " required")
	}

	base := subtotal
	if len(c.ApplicableProductIDs) > 0 {
		base = eligibleBase(c, lines)
		if base == 0 {
			return invalid("Coupon not applicable to items in cart")
		}
	}

	var discount pricing.Money
	switch c.Type {
	case Percentage:
		discount = base * c.Value / 100
	default:
		discount = c.Value
		if discount > base {
			discount = base
		}
	}
	if c.MaxDiscount > 0 && discount > c.MaxDiscount {
		discount = c.MaxDiscount
	}
	if discount > subtotal {
		discount = subtotal
	}
	return Result{Valid: true, Discount: discount, CouponID: c.ID}
}

func eligibleBase(c Coupon, lines []pricing.Line) pricing.Money {
	applicable := make(map[string]struct{}, len(c.ApplicableProductIDs))
	for _, id := range c.ApplicableProductIDs {
		applicable[id] = struct{}{}
	}
	var base pricing.Money
	for _, l := range lines {
		if _, ok := applicable[l.ProductID]; ok {
			base += l.LineTotal()
		}
	}
	return base
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
