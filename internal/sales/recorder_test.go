package sales

import (
	"context"
	"strings"
	"testing"
	"time"
)

type stubLedger struct {
	records []Record
}

func (s *stubLedger) AddSale(ctx context.Context, rec Record) (Record, error) {
	rec.ID = "doc" + OrderNumber(rec.Timestamp)
	s.records = append(s.records, rec)
	return rec, nil
}

func (s *stubLedger) GetSaleByOrderNumber(ctx context.Context, orderNumber string) (Record, error) {
	for _, rec := range s.records {
		if rec.OrderNumber == orderNumber {
			return rec, nil
		}
	}
	return Record{}, ErrNotFound
}

func (s *stubLedger) OrderNumberExists(ctx context.Context, orderNumber string) (bool, error) {
	_, err := s.GetSaleByOrderNumber(ctx, orderNumber)
	return err == nil, nil
}

func (s *stubLedger) ListSales(ctx context.Context, startDate, endDate string) ([]Record, error) {
	return s.records, nil
}

var recordNow = time.Date(2025, 6, 15, 14, 30, 45, 0, time.UTC)

func TestOrderNumberFormat(t *testing.T) {
	if got := OrderNumber(recordNow); got != "250615143045" {
		t.Fatalf("expected 250615143045, got %q", got)
	}
}

func TestRecordGeneratesNumberAndDate(t *testing.T) {
	ledger := &stubLedger{}
	rec := &Recorder{Store: ledger, Now: func() time.Time { return recordNow }}
	saved, err := rec.Record(context.Background(), Record{
		Items:    []Item{{ProductID: "p1", Title: "Milk", Price: 100, Quantity: 2, Total: 200}},
		Subtotal: 200,
		Total:    236,
		Currency: "INR",
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if saved.OrderNumber != "250615143045" {
		t.Fatalf("unexpected order number %q", saved.OrderNumber)
	}
	if saved.Date != "2025-06-15" {
		t.Fatalf("unexpected date %q", saved.Date)
	}
	if saved.Tax != 36 {
		t.Fatalf("tax must reconcile to total minus taxable, got %v", saved.Tax)
	}
	if saved.PaymentMethod != PayCash {
		t.Fatalf("expected default Cash payment, got %q", saved.PaymentMethod)
	}
}

func TestRecordTaxReconcilesWithDiscount(t *testing.T) {
	ledger := &stubLedger{}
	rec := &Recorder{Store: ledger, Now: func() time.Time { return recordNow }}
	saved, err := rec.Record(context.Background(), Record{
		Items:    []Item{{ProductID: "p1", Title: "Milk", Price: 100, Quantity: 2, Total: 200}},
		Subtotal: 200,
		Discount: 50,
		Total:    177,
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if saved.Tax != 27 {
		t.Fatalf("expected stored tax 27, got %v", saved.Tax)
	}
}

func TestRecordCollisionGetsSuffix(t *testing.T) {
	ledger := &stubLedger{}
	rec := &Recorder{Store: ledger, Now: func() time.Time { return recordNow }}
	first, err := rec.Record(context.Background(), Record{
		Items: []Item{{ProductID: "p1", Title: "Milk", Price: 10, Quantity: 1, Total: 10}},
		Total: 10, Subtotal: 10,
	})
	if err != nil {
		t.Fatalf("first record failed: %v", err)
	}
	second, err := rec.Record(context.Background(), Record{
		Items: []Item{{ProductID: "p2", Title: "Bread", Price: 20, Quantity: 1, Total: 20}},
		Total: 20, Subtotal: 20,
	})
	if err != nil {
		t.Fatalf("second record failed: %v", err)
	}
	if first.OrderNumber == second.OrderNumber {
		t.Fatal("same-second orders must not share an order number")
	}
	if !strings.HasPrefix(second.OrderNumber, first.OrderNumber+"-") {
		t.Fatalf("expected suffixed base number, got %q", second.OrderNumber)
	}
}

func TestRecordRejectsEmptyItems(t *testing.T) {
	rec := &Recorder{Store: &stubLedger{}, Now: func() time.Time { return recordNow }}
	if _, err := rec.Record(context.Background(), Record{Total: 10}); err == nil {
		t.Fatal("empty sale must be rejected")
	}
}

func TestSummarize(t *testing.T) {
	ledger := &stubLedger{records: []Record{
		{Total: 236, Subtotal: 200, Discount: 0, Tax: 36},
		{Total: 177, Subtotal: 200, Discount: 50, Tax: 27},
		{Total: -100, Subtotal: -100, IsReturn: true},
	}}
	reports := &Reports{Store: ledger}
	s, err := reports.Summarize(context.Background(), "", "")
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if s.SaleCount != 2 || s.ReturnCount != 1 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if s.GrossAmount != 413 || s.RefundAmount != 100 || s.NetAmount != 313 {
		t.Fatalf("unexpected amounts: %+v", s)
	}
	if s.Discounts != 50 || s.Tax != 63 {
		t.Fatalf("unexpected discount/tax: %+v", s)
	}
}
