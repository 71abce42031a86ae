package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/backend-pos/internal/pricing"
)

var (
	// ErrNotFound is returned when no coupon matches the requested id or code.
	ErrNotFound = errors.New("coupon not found")
	// ErrDuplicateCode is returned when creating or renaming a coupon to a
	// code that already exists. Codes are globally unique.
	ErrDuplicateCode = errors.New("coupon code already exists")
)

// Store captures the persistence methods required by the coupon service.
type Store interface {
	GetCoupon(ctx context.Context, id string) (Coupon, error)
	GetCouponByCode(ctx context.Context, code string) (Coupon, error)
	ListCoupons(ctx context.Context) ([]Coupon, error)
	CreateCoupon(ctx context.Context, c Coupon) (Coupon, error)
	UpdateCoupon(ctx context.Context, id string, c Coupon) error
	DeleteCoupon(ctx context.Context, id string) error
	IncrementCouponUsage(ctx context.Context, id string) error
}

// Service wraps coupon persistence and evaluation.
type Service struct {
	Store Store
	Now   func() time.Time
}

// Evaluate resolves a user-entered code and runs the discount rules against
// the cart. Store failures are returned as errors; business rejections come
// back as an invalid Result with an actionable reason.
func (s *Service) Evaluate(ctx context.Context, code string, lines []pricing.Line, subtotal pricing.Money) (Result, error) {
	if s == nil || s.Store == nil {
		return Result{}, errors.New("coupon service not configured")
	}
	normalized := NormalizeCode(code)
	if normalized == "" {
		return invalid("Coupon code is required"), nil
	}
	c, err := s.Store.GetCouponByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalid("Invalid or inactive coupon"), nil
		}
		return Result{}, fmt.Errorf("lookup coupon: %w", err)
	}
	return Evaluate(c, lines, subtotal, s.now()), nil
}

// Create persists a new coupon after enforcing code uniqueness.
func (s *Service) Create(ctx context.Context, c Coupon) (Coupon, error) {
	if s == nil || s.Store == nil {
		return Coupon{}, errors.New("coupon service not configured")
	}
	c.Code = NormalizeCode(c.Code)
	if c.Code == "" {
		return Coupon{}, errors.New("coupon code is required")
	}
	if c.Type != Percentage && c.Type != Fixed {
		return Coupon{}, fmt.Errorf("unknown discount type %q", c.Type)
	}
	if c.Value <= 0 {
		return Coupon{}, errors.New("coupon value must be positive")
	}
	if _, err := s.Store.GetCouponByCode(ctx, c.Code); err == nil {
		return Coupon{}, ErrDuplicateCode
	} else if !errors.Is(err, ErrNotFound) {
		return Coupon{}, fmt.Errorf("check code uniqueness: %w", err)
	}
	c.UsageCount = 0
	c.CreatedAt = s.now()
	return s.Store.CreateCoupon(ctx, c)
}

// Update rewrites a coupon definition, re-checking uniqueness when the code
// changes. The usage counter is never reset by an update.
func (s *Service) Update(ctx context.Context, id string, c Coupon) error {
	if s == nil || s.Store == nil {
		return errors.New("coupon service not configured")
	}
	existing, err := s.Store.GetCoupon(ctx, id)
	if err != nil {
		return err
	}
	c.Code = NormalizeCode(c.Code)
	if c.Code == "" {
		c.Code = existing.Code
	}
	if c.Code != existing.Code {
		if other, err := s.Store.GetCouponByCode(ctx, c.Code); err == nil && other.ID != id {
			return ErrDuplicateCode
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("check code uniqueness: %w", err)
		}
	}
	c.UsageCount = existing.UsageCount
	c.CreatedAt = existing.CreatedAt
	return s.Store.UpdateCoupon(ctx, id, c)
}

// Delete removes a coupon definition.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s == nil || s.Store == nil {
		return errors.New("coupon service not configured")
	}
	return s.Store.DeleteCoupon(ctx, id)
}

// List returns all coupon definitions for the admin view.
func (s *Service) List(ctx context.Context) ([]Coupon, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("coupon service not configured")
	}
	return s.Store.ListCoupons(ctx)
}

// IncrementUsage bumps the monotonic usage counter after a settled sale.
// The counter is never decremented, not even when the sale is returned.
func (s *Service) IncrementUsage(ctx context.Context, id string) error {
	if s == nil || s.Store == nil {
		return errors.New("coupon service not configured")
	}
	if id == "" {
		return nil
	}
	return s.Store.IncrementCouponUsage(ctx, id)
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
