package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/noah-isme/backend-pos/internal/coupon"
)

// Coupons persists coupon definitions in the "coupons" collection.
type Coupons struct {
	Client *firestore.Client
}

func (r *Coupons) col() *firestore.CollectionRef {
	return r.Client.Collection("coupons")
}

func (r *Coupons) GetCoupon(ctx context.Context, id string) (coupon.Coupon, error) {
	if r == nil || r.Client == nil {
		return coupon.Coupon{}, errors.New("coupons repo not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return coupon.Coupon{}, coupon.ErrNotFound
	}
	snap, err := r.col().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return coupon.Coupon{}, coupon.ErrNotFound
	}
	if err != nil {
		return coupon.Coupon{}, fmt.Errorf("get coupon %s: %w", id, err)
	}
	return docToCoupon(snap)
}

// GetCouponByCode resolves a normalized code. Codes are stored normalized,
// so this is an equality query, not a scan.
func (r *Coupons) GetCouponByCode(ctx context.Context, code string) (coupon.Coupon, error) {
	if r == nil || r.Client == nil {
		return coupon.Coupon{}, errors.New("coupons repo not configured")
	}
	iter := r.col().Where("code", "==", coupon.NormalizeCode(code)).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return coupon.Coupon{}, coupon.ErrNotFound
	}
	if err != nil {
		return coupon.Coupon{}, fmt.Errorf("query coupon by code: %w", err)
	}
	return docToCoupon(snap)
}

func (r *Coupons) ListCoupons(ctx context.Context) ([]coupon.Coupon, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("coupons repo not configured")
	}
	iter := r.col().OrderBy("createdAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	coupons := make([]coupon.Coupon, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list coupons: %w", err)
		}
		c, err := docToCoupon(snap)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, c)
	}
	return coupons, nil
}

func (r *Coupons) CreateCoupon(ctx context.Context, c coupon.Coupon) (coupon.Coupon, error) {
	if r == nil || r.Client == nil {
		return coupon.Coupon{}, errors.New("coupons repo not configured")
	}
	doc := r.col().NewDoc()
	if _, err := doc.Create(ctx, c); err != nil {
		return coupon.Coupon{}, fmt.Errorf("create coupon: %w", err)
	}
	c.ID = doc.ID
	return c, nil
}

func (r *Coupons) UpdateCoupon(ctx context.Context, id string, c coupon.Coupon) error {
	if r == nil || r.Client == nil {
		return errors.New("coupons repo not configured")
	}
	_, err := r.col().Doc(id).Set(ctx, c)
	if status.Code(err) == codes.NotFound {
		return coupon.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update coupon %s: %w", id, err)
	}
	return nil
}

func (r *Coupons) DeleteCoupon(ctx context.Context, id string) error {
	if r == nil || r.Client == nil {
		return errors.New("coupons repo not configured")
	}
	if _, err := r.col().Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete coupon %s: %w", id, err)
	}
	return nil
}

// IncrementCouponUsage bumps the usage counter with a server-side atomic
// increment, so concurrent checkouts never lose a count.
func (r *Coupons) IncrementCouponUsage(ctx context.Context, id string) error {
	if r == nil || r.Client == nil {
		return errors.New("coupons repo not configured")
	}
	_, err := r.col().Doc(id).Update(ctx, []firestore.Update{
		{Path: "usageCount", Value: firestore.Increment(1)},
	})
	if status.Code(err) == codes.NotFound {
		return coupon.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("increment usage for coupon %s: %w", id, err)
	}
	return nil
}

func docToCoupon(snap *firestore.DocumentSnapshot) (coupon.Coupon, error) {
	var c coupon.Coupon
	if err := snap.DataTo(&c); err != nil {
		return coupon.Coupon{}, fmt.Errorf("decode coupon %s: %w", snap.Ref.ID, err)
	}
	c.ID = snap.Ref.ID
	return c, nil
}
