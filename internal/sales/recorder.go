package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// OrderNumber derives the human-presentable order number from the wall
// clock: YYMMDDHHMMSS. Sortable, unique to the second.
func OrderNumber(now time.Time) string {
	return now.Format("060102150405")
}

// Recorder appends immutable records to the sales ledger.
type Recorder struct {
	Store Store
	Now   func() time.Time
}

// Record persists one sale. The order number is generated when absent; a
// same-second collision gets a short random suffix so two rapid checkouts
// never share a number. Tax is stored as total minus the taxable base so
// the persisted breakdown always reconciles to the caller's total exactly,
// whatever rounding the caller applied.
func (r *Recorder) Record(ctx context.Context, rec Record) (Record, error) {
	if r == nil || r.Store == nil {
		return Record{}, errors.New("sale recorder not configured")
	}
	if len(rec.Items) == 0 {
		return Record{}, errors.New("sale must contain at least one item")
	}
	now := r.now()
	if strings.TrimSpace(rec.OrderNumber) == "" {
		number, err := r.uniqueOrderNumber(ctx, now)
		if err != nil {
			return Record{}, err
		}
		rec.OrderNumber = number
	}
	taxable := rec.Subtotal - rec.Discount
	if taxable < 0 {
		taxable = 0
	}
	if rec.IsReturn {
		rec.Tax = 0
	} else {
		rec.Tax = rec.Total - taxable
	}
	if rec.PaymentMethod == "" {
		rec.PaymentMethod = PayCash
	}
	rec.Timestamp = now
	rec.Date = now.Format(dateLayout)
	return r.Store.AddSale(ctx, rec)
}

// GetByOrderNumber returns the first record matching the order number.
func (r *Recorder) GetByOrderNumber(ctx context.Context, orderNumber string) (Record, error) {
	if r == nil || r.Store == nil {
		return Record{}, errors.New("sale recorder not configured")
	}
	return r.Store.GetSaleByOrderNumber(ctx, strings.TrimSpace(orderNumber))
}

func (r *Recorder) uniqueOrderNumber(ctx context.Context, now time.Time) (string, error) {
	number := OrderNumber(now)
	exists, err := r.Store.OrderNumberExists(ctx, number)
	if err != nil {
		return "", fmt.Errorf("check order number: %w", err)
	}
	if !exists {
		return number, nil
	}
	// Two checkouts inside one wall-clock second. Keep the sortable base
	// and disambiguate with a short random suffix.
	suffix := strings.ToUpper(uuid.NewString()[:4])
	return number + "-" + suffix, nil
}

func (r *Recorder) now() time.Time {
	if r != nil && r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
