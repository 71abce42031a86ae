package sales

import (
	"context"
	"errors"
)

// Summary aggregates a date range of ledger records for the reports view.
type Summary struct {
	SaleCount    int     `json:"saleCount"`
	ReturnCount  int     `json:"returnCount"`
	GrossAmount  float64 `json:"grossAmount"`
	RefundAmount float64 `json:"refundAmount"`
	NetAmount    float64 `json:"netAmount"`
	Discounts    float64 `json:"discounts"`
	Tax          float64 `json:"tax"`
}

// Reports serves read queries over the sales ledger.
type Reports struct {
	Store Store
}

// List returns ledger records, newest first, optionally bounded by
// inclusive calendar-day strings (YYYY-MM-DD).
func (r *Reports) List(ctx context.Context, startDate, endDate string) ([]Record, error) {
	if r == nil || r.Store == nil {
		return nil, errors.New("reports not configured")
	}
	return r.Store.ListSales(ctx, startDate, endDate)
}

// Summarize folds a date range into headline numbers.
func (r *Reports) Summarize(ctx context.Context, startDate, endDate string) (Summary, error) {
	records, err := r.List(ctx, startDate, endDate)
	if err != nil {
		return Summary{}, err
	}
	var s Summary
	for _, rec := range records {
		if rec.IsReturn {
			s.ReturnCount++
			s.RefundAmount += -rec.Total
			continue
		}
		s.SaleCount++
		s.GrossAmount += rec.Total
		s.Discounts += rec.Discount
		s.Tax += rec.Tax
	}
	s.NetAmount = s.GrossAmount - s.RefundAmount
	return s, nil
}
