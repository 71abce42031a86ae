package checkout

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/catalog"
	"github.com/noah-isme/backend-pos/internal/coupon"
	"github.com/noah-isme/backend-pos/internal/inventory"
	"github.com/noah-isme/backend-pos/internal/sales"
	"github.com/noah-isme/backend-pos/internal/settings"
)

var checkoutNow = time.Date(2025, 6, 15, 14, 30, 45, 0, time.UTC)

type stubProducts struct {
	products map[string]catalog.Product
	adjusted map[string]int64
	failID   string
}

func (s *stubProducts) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func (s *stubProducts) AdjustStock(ctx context.Context, productID string, delta int64, clampZero bool) (int64, error) {
	if productID == s.failID {
		return 0, errors.New("firestore unavailable")
	}
	if s.adjusted == nil {
		s.adjusted = map[string]int64{}
	}
	s.adjusted[productID] += delta
	p := s.products[productID]
	next := p.Stock + delta
	if next < 0 {
		if !clampZero {
			return 0, inventory.ErrInsufficientStock
		}
		next = 0
	}
	p.Stock = next
	s.products[productID] = p
	return next, nil
}

type stubSales struct {
	records []sales.Record
}

func (s *stubSales) AddSale(ctx context.Context, rec sales.Record) (sales.Record, error) {
	rec.ID = "doc" + strconv.Itoa(len(s.records))
	s.records = append(s.records, rec)
	return rec, nil
}

func (s *stubSales) GetSaleByOrderNumber(ctx context.Context, orderNumber string) (sales.Record, error) {
	for _, rec := range s.records {
		if rec.OrderNumber == orderNumber {
			return rec, nil
		}
	}
	return sales.Record{}, sales.ErrNotFound
}

func (s *stubSales) OrderNumberExists(ctx context.Context, orderNumber string) (bool, error) {
	_, err := s.GetSaleByOrderNumber(ctx, orderNumber)
	return err == nil, nil
}

func (s *stubSales) ListSales(ctx context.Context, startDate, endDate string) ([]sales.Record, error) {
	return s.records, nil
}

type stubCoupons struct {
	byCode map[string]coupon.Coupon
	usage  map[string]int
}

func (s *stubCoupons) GetCoupon(ctx context.Context, id string) (coupon.Coupon, error) {
	for _, c := range s.byCode {
		if c.ID == id {
			return c, nil
		}
	}
	return coupon.Coupon{}, coupon.ErrNotFound
}

func (s *stubCoupons) GetCouponByCode(ctx context.Context, code string) (coupon.Coupon, error) {
	c, ok := s.byCode[code]
	if !ok {
		return coupon.Coupon{}, coupon.ErrNotFound
	}
	return c, nil
}

func (s *stubCoupons) ListCoupons(ctx context.Context) ([]coupon.Coupon, error) { return nil, nil }

func (s *stubCoupons) CreateCoupon(ctx context.Context, c coupon.Coupon) (coupon.Coupon, error) {
	return c, nil
}

func (s *stubCoupons) UpdateCoupon(ctx context.Context, id string, c coupon.Coupon) error {
	return nil
}

func (s *stubCoupons) DeleteCoupon(ctx context.Context, id string) error { return nil }

func (s *stubCoupons) IncrementCouponUsage(ctx context.Context, id string) error {
	if s.usage == nil {
		s.usage = map[string]int{}
	}
	s.usage[id]++
	return nil
}

type stubSettingsRepo struct{ doc settings.Store }

func (s *stubSettingsRepo) GetSettings(ctx context.Context) (settings.Store, error) {
	return s.doc, nil
}

func (s *stubSettingsRepo) SaveSettings(ctx context.Context, st settings.Store) error { return nil }

func fixture() (*Service, *stubProducts, *stubSales, *stubCoupons) {
	products := &stubProducts{products: map[string]catalog.Product{
		"p1": {ID: "p1", Title: "Milk 500ml", Price: 100, Stock: 10},
		"p2": {ID: "p2", Title: "Loose Sugar", Price: 200, Stock: 0, SoldByWeight: true},
	}}
	ledger := &stubSales{}
	coupons := &stubCoupons{byCode: map[string]coupon.Coupon{
		"SAVE25": {ID: "c1", Code: "SAVE25", Type: coupon.Percentage, Value: 25, IsActive: true},
	}}
	now := func() time.Time { return checkoutNow }
	svc := &Service{
		Products: products,
		Stock:    &inventory.Validator{Store: products},
		Adjust:   &inventory.Adjuster{Store: products},
		Coupons:  &coupon.Service{Store: coupons, Now: now},
		Recorder: &sales.Recorder{Store: ledger, Now: now},
		Settings: &settings.Service{Repo: &stubSettingsRepo{doc: settings.Store{
			StoreName: "Corner Mart", CurrencyCode: "INR", CurrencySymbol: "₹", TaxPercent: 18,
		}}},
		Logger: zerolog.Nop(),
	}
	return svc, products, ledger, coupons
}

func TestSettleCashWithChange(t *testing.T) {
	svc, products, ledger, _ := fixture()
	out, err := svc.Settle(context.Background(), Input{
		Items:         []ItemInput{{ProductID: "p1", Quantity: 2}},
		PaymentMethod: sales.PayCash,
		CashTendered:  300,
	})
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if out.Summary.Subtotal != 200 || out.Summary.Tax != 36 || out.Summary.Total != 236 {
		t.Fatalf("unexpected summary: %+v", out.Summary)
	}
	if out.ChangeDue != 64 {
		t.Fatalf("expected change 64, got %v", out.ChangeDue)
	}
	if len(ledger.records) != 1 {
		t.Fatalf("expected one ledger record, got %d", len(ledger.records))
	}
	if products.adjusted["p1"] != -2 {
		t.Fatalf("expected stock decrement of 2, got %d", products.adjusted["p1"])
	}
	if len(out.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", out.Warnings)
	}
}

func TestSettleWeightLineSkipsStockGate(t *testing.T) {
	svc, products, _, _ := fixture()
	out, err := svc.Settle(context.Background(), Input{
		Items:         []ItemInput{{ProductID: "p2", Quantity: 250}},
		PaymentMethod: sales.PayCash,
	})
	if err != nil {
		t.Fatalf("weight line must settle despite zero stock: %v", err)
	}
	if out.Summary.Subtotal != 50 {
		t.Fatalf("expected 250g at 200/kg to be 50, got %v", out.Summary.Subtotal)
	}
	if products.adjusted["p2"] != 0 {
		t.Fatalf("weight lines must not decrement unit stock, got %d", products.adjusted["p2"])
	}
}

func TestSettleRejectsShortfall(t *testing.T) {
	svc, _, ledger, _ := fixture()
	_, err := svc.Settle(context.Background(), Input{
		Items:         []ItemInput{{ProductID: "p1", Quantity: 11}},
		PaymentMethod: sales.PayCash,
	})
	var stockErr *StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected StockError, got %v", err)
	}
	if stockErr.Shortfalls[0].Message != "Milk 500ml (Available: 10)" {
		t.Fatalf("unexpected shortfall message: %q", stockErr.Shortfalls[0].Message)
	}
	if len(ledger.records) != 0 {
		t.Fatal("no sale may be recorded on a stock rejection")
	}
}

func TestSettleRejectsUnknownProduct(t *testing.T) {
	svc, _, ledger, _ := fixture()
	_, err := svc.Settle(context.Background(), Input{
		Items:         []ItemInput{{ProductID: "ghost", Quantity: 1}},
		PaymentMethod: sales.PayCash,
	})
	var stockErr *StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected StockError, got %v", err)
	}
	if len(ledger.records) != 0 {
		t.Fatal("no sale may be recorded for an unknown product")
	}
}

func TestSettleAppliesCouponAndCountsUsage(t *testing.T) {
	svc, _, ledger, coupons := fixture()
	out, err := svc.Settle(context.Background(), Input{
		Items:         []ItemInput{{ProductID: "p1", Quantity: 2}},
		CouponCode:    "save25",
		PaymentMethod: sales.PayCash,
	})
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if out.Summary.Discount != 50 || out.Summary.Total != 177 {
		t.Fatalf("unexpected discounted summary: %+v", out.Summary)
	}
	if ledger.records[0].CouponCode != "SAVE25" {
		t.Fatalf("normalized code must be stored, got %q", ledger.records[0].CouponCode)
	}
	if coupons.usage["c1"] != 1 {
		t.Fatalf("expected usage count 1, got %d", coupons.usage["c1"])
	}
}

func TestSettleRejectsInvalidCoupon(t *testing.T) {
	svc, _, ledger, _ := fixture()
	_, err := svc.Settle(context.Background(), Input{
		Items:         []ItemInput{{ProductID: "p1", Quantity: 1}},
		CouponCode:    "NOPE",
		PaymentMethod: sales.PayCash,
	})
	var couponErr *CouponError
	if !errors.As(err, &couponErr) {
		t.Fatalf("expected CouponError, got %v", err)
	}
	if couponErr.Reason != "Invalid or inactive coupon" {
		t.Fatalf("unexpected reason %q", couponErr.Reason)
	}
	if len(ledger.records) != 0 {
		t.Fatal("no sale may be recorded on a coupon rejection")
	}
}

func TestSettleValidatesSplit(t *testing.T) {
	svc, _, _, _ := fixture()
	_, err := svc.Settle(context.Background(), Input{
		Items:         []ItemInput{{ProductID: "p1", Quantity: 2}},
		PaymentMethod: sales.PaySplit,
		Split:         &sales.SplitBreakdown{Cash: 100, Online: 100},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected split mismatch rejection, got %v", err)
	}

	out, err := svc.Settle(context.Background(), Input{
		Items:         []ItemInput{{ProductID: "p1", Quantity: 2}},
		PaymentMethod: sales.PaySplit,
		Split:         &sales.SplitBreakdown{Cash: 100, Online: 136},
	})
	if err != nil {
		t.Fatalf("matching split must settle: %v", err)
	}
	if out.Order.Split == nil || out.Order.Split.Cash != 100 {
		t.Fatalf("split breakdown must be stored: %+v", out.Order.Split)
	}
}

func TestSettleSurfacesPostCommitStockFailure(t *testing.T) {
	svc, products, ledger, _ := fixture()
	products.failID = "p1"
	out, err := svc.Settle(context.Background(), Input{
		Items:         []ItemInput{{ProductID: "p1", Quantity: 2}},
		PaymentMethod: sales.PayCash,
	})
	if err != nil {
		t.Fatalf("post-commit failures must not fail the settlement: %v", err)
	}
	if len(ledger.records) != 1 {
		t.Fatal("the sale must stay recorded")
	}
	if len(out.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", out.Warnings)
	}
}

func TestSettleManualDiscountClampsToSubtotal(t *testing.T) {
	svc, _, _, _ := fixture()
	out, err := svc.Settle(context.Background(), Input{
		Items:          []ItemInput{{ProductID: "p1", Quantity: 1}},
		ManualDiscount: 500,
		PaymentMethod:  sales.PayCash,
	})
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if out.Summary.Discount != 100 || out.Summary.Total != 0 {
		t.Fatalf("discount must clamp to subtotal: %+v", out.Summary)
	}
}
