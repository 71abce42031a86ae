package checkout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/catalog"
	"github.com/noah-isme/backend-pos/internal/coupon"
	"github.com/noah-isme/backend-pos/internal/inventory"
	"github.com/noah-isme/backend-pos/internal/pricing"
	"github.com/noah-isme/backend-pos/internal/receipt"
	"github.com/noah-isme/backend-pos/internal/sales"
	"github.com/noah-isme/backend-pos/internal/settings"
)

// ItemInput is one cart line as submitted by the register. Price and title
// are resolved server-side from the catalog; the client never dictates them.
type ItemInput struct {
	ProductID string  `json:"productId" validate:"required"`
	Quantity  float64 `json:"quantity" validate:"gt=0"`
	Notes     string  `json:"notes,omitempty"`
}

// Input is one settlement request.
type Input struct {
	Items          []ItemInput           `json:"items" validate:"required,min=1,dive"`
	CouponCode     string                `json:"couponCode,omitempty"`
	ManualDiscount float64               `json:"manualDiscount,omitempty" validate:"gte=0"`
	PaymentMethod  sales.PaymentMethod   `json:"paymentMethod" validate:"required,oneof=Cash Online Split"`
	CashTendered   float64               `json:"cashTendered,omitempty" validate:"gte=0"`
	Split          *sales.SplitBreakdown `json:"split,omitempty"`
	TerminalID     string                `json:"-"`
}

// Output is the settled order plus drawer guidance. Warnings carry
// post-commit failures the operator must follow up on; the order itself is
// already durable when they appear.
type Output struct {
	Order     sales.Record    `json:"order"`
	ChangeDue float64         `json:"changeDue,omitempty"`
	Summary   pricing.Summary `json:"summary"`
	Coupon    *coupon.Result  `json:"coupon,omitempty"`
	Warnings  []string        `json:"warnings,omitempty"`
}

// StockError aborts a settlement that would oversell.
type StockError struct {
	Shortfalls []inventory.Shortfall
}

func (e *StockError) Error() string {
	msgs := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		msgs = append(msgs, s.Message)
	}
	return "insufficient stock: " + strings.Join(msgs, "; ")
}

// CouponError aborts a settlement whose coupon was rejected.
type CouponError struct {
	Reason string
}

func (e *CouponError) Error() string { return e.Reason }

// ErrValidation marks malformed settlement input.
var ErrValidation = errors.New("invalid checkout input")

// Service settles orders. Everything before the sale record is written can
// abort cleanly; everything after is collected into warnings because the
// ledger entry is already durable.
type Service struct {
	Products   inventory.Reader
	Stock      *inventory.Validator
	Adjust     *inventory.Adjuster
	Coupons    *coupon.Service
	Recorder   *sales.Recorder
	Settings   *settings.Service
	Receipts   *receipt.Enqueuer
	Invalidate func(ctx context.Context)
	Logger     zerolog.Logger
}

// Settle runs the whole settlement pipeline for one order.
func (s *Service) Settle(ctx context.Context, in Input) (Output, error) {
	if s == nil || s.Products == nil || s.Recorder == nil || s.Settings == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	if err := validateInput(in); err != nil {
		return Output{}, err
	}

	// One settings snapshot per settlement. A concurrent settings edit never
	// changes the tax rate mid-order.
	cfg, err := s.Settings.Get(ctx)
	if err != nil {
		return Output{}, fmt.Errorf("load settlement config: %w", err)
	}

	lines, err := s.resolveLines(ctx, in.Items)
	if err != nil {
		return Output{}, err
	}

	if s.Stock != nil {
		shortfalls, err := s.Stock.Check(ctx, lines)
		if err != nil {
			return Output{}, fmt.Errorf("validate stock: %w", err)
		}
		if len(shortfalls) > 0 {
			return Output{}, &StockError{Shortfalls: shortfalls}
		}
	}

	subtotal := pricing.Subtotal(lines)

	var (
		discount     pricing.Money
		couponResult *coupon.Result
	)
	if code := strings.TrimSpace(in.CouponCode); code != "" {
		if s.Coupons == nil {
			return Output{}, errors.New("coupon service not configured")
		}
		result, err := s.Coupons.Evaluate(ctx, code, lines, subtotal)
		if err != nil {
			return Output{}, fmt.Errorf("evaluate coupon: %w", err)
		}
		if !result.Valid {
			return Output{}, &CouponError{Reason: result.Reason}
		}
		couponResult = &result
		discount = result.Discount
	}
	discount += in.ManualDiscount
	if discount > subtotal {
		discount = subtotal
	}

	summary := pricing.Settle(subtotal, discount, cfg.TaxPercent)

	change, err := validatePayment(in, summary.Total)
	if err != nil {
		return Output{}, err
	}

	items := make([]sales.Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, sales.Item{
			ProductID:    l.ProductID,
			Title:        l.Title,
			Price:        l.UnitPrice,
			Quantity:     l.Quantity,
			Total:        l.LineTotal(),
			Notes:        l.Notes,
			SoldByWeight: l.SoldByWeight,
		})
	}
	rec := sales.Record{
		Items:         items,
		Subtotal:      summary.Subtotal,
		Discount:      summary.Discount,
		Tax:           summary.Tax,
		Total:         summary.Total,
		Currency:      cfg.CurrencyCode,
		PaymentMethod: in.PaymentMethod,
		Split:         in.Split,
		TerminalID:    in.TerminalID,
	}
	if couponResult != nil {
		rec.CouponCode = coupon.NormalizeCode(in.CouponCode)
	}

	order, err := s.Recorder.Record(ctx, rec)
	if err != nil {
		return Output{}, fmt.Errorf("record sale: %w", err)
	}

	// Committed. Failures from here on are warnings, not rollbacks.
	out := Output{Order: order, ChangeDue: change, Summary: summary, Coupon: couponResult}
	out.Warnings = s.afterCommit(ctx, order, lines, couponResult)
	return out, nil
}

// afterCommit applies stock decrements, coupon usage and receipt printing.
// Each failure is logged and surfaced; none of them can undo the sale.
func (s *Service) afterCommit(ctx context.Context, order sales.Record, lines []pricing.Line, couponResult *coupon.Result) []string {
	var warnings []string
	if s.Adjust != nil {
		for _, l := range lines {
			qty := int64(math.Round(l.Quantity))
			if l.SoldByWeight || qty <= 0 {
				continue
			}
			if err := s.Adjust.Decrement(ctx, l.ProductID, qty, l.SoldByWeight); err != nil {
				s.Logger.Error().Err(err).
					Str("order_number", order.OrderNumber).
					Str("product_id", l.ProductID).
					Msg("post-commit stock decrement failed")
				warnings = append(warnings, fmt.Sprintf("stock not decremented for %s: %v", l.Title, err))
			}
		}
	}
	if couponResult != nil && s.Coupons != nil {
		if err := s.Coupons.IncrementUsage(ctx, couponResult.CouponID); err != nil {
			s.Logger.Error().Err(err).
				Str("order_number", order.OrderNumber).
				Str("coupon_id", couponResult.CouponID).
				Msg("post-commit coupon usage increment failed")
			warnings = append(warnings, fmt.Sprintf("coupon usage not counted: %v", err))
		}
	}
	if s.Invalidate != nil {
		s.Invalidate(ctx)
	}
	s.Receipts.Enqueue(ctx, order.OrderNumber)
	return warnings
}

// resolveLines snapshots title, price and weight mode from the catalog.
func (s *Service) resolveLines(ctx context.Context, items []ItemInput) ([]pricing.Line, error) {
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		product, err := s.Products.GetProduct(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return nil, &StockError{Shortfalls: []inventory.Shortfall{{
					ProductID: it.ProductID,
					Message:   fmt.Sprintf("%s (Product not found)", it.ProductID),
				}}}
			}
			return nil, fmt.Errorf("resolve product %s: %w", it.ProductID, err)
		}
		lines = append(lines, pricing.Line{
			ProductID:    product.ID,
			Title:        product.Title,
			UnitPrice:    product.Price,
			Quantity:     it.Quantity,
			SoldByWeight: product.SoldByWeight,
			Notes:        it.Notes,
		})
	}
	return lines, nil
}

func validateInput(in Input) error {
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrValidation)
	}
	for _, it := range in.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			return fmt.Errorf("%w: item product id is required", ErrValidation)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: item quantity must be positive", ErrValidation)
		}
	}
	if in.ManualDiscount < 0 {
		return fmt.Errorf("%w: manual discount must not be negative", ErrValidation)
	}
	switch in.PaymentMethod {
	case sales.PayCash, sales.PayOnline:
	case sales.PaySplit:
		if in.Split == nil {
			return fmt.Errorf("%w: split payment requires a cash/online breakdown", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown payment method %q", ErrValidation, in.PaymentMethod)
	}
	return nil
}

// validatePayment checks the tendered amounts against the settled total and
// returns the change due for cash payments.
func validatePayment(in Input, total pricing.Money) (float64, error) {
	switch in.PaymentMethod {
	case sales.PayCash:
		if in.CashTendered == 0 {
			return 0, nil
		}
		if in.CashTendered < total {
			return 0, fmt.Errorf("%w: cash tendered %.2f is below total %.2f", ErrValidation, in.CashTendered, total)
		}
		return in.CashTendered - total, nil
	case sales.PaySplit:
		if err := pricing.ValidateSplit(in.Split.Cash, in.Split.Online, total); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	return 0, nil
}
