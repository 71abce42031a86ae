package receipt

import (
	"strings"
	"testing"
	"time"

	"github.com/noah-isme/backend-pos/internal/sales"
	"github.com/noah-isme/backend-pos/internal/settings"
)

var testSettings = settings.Store{
	StoreName:      "Corner Mart",
	Address:        "12 Market Road",
	Phone:          "040-1234567",
	CurrencyCode:   "INR",
	CurrencySymbol: "Rs.",
	TaxPercent:     18,
}

func testRecord() sales.Record {
	return sales.Record{
		OrderNumber: "250615143045",
		Items: []sales.Item{
			{ProductID: "p1", Title: "Milk 500ml", Price: 18, Quantity: 2, Total: 36},
			{ProductID: "p2", Title: "Loose Sugar", Price: 200, Quantity: 250, Total: 50, SoldByWeight: true},
		},
		Subtotal:      86,
		Discount:      10,
		CouponCode:    "SAVE10",
		Tax:           13.68,
		Total:         89.68,
		Currency:      "INR",
		PaymentMethod: sales.PayCash,
		Timestamp:     time.Date(2025, 6, 15, 14, 30, 45, 0, time.UTC),
		Date:          "2025-06-15",
	}
}

func TestRenderShape(t *testing.T) {
	body := string(Renderer{}.Render(testSettings, testRecord()))
	lines := strings.Split(body, "\n")

	for i, line := range lines {
		if len([]rune(line)) > defaultWidth {
			t.Fatalf("line %d exceeds %d columns: %q", i, defaultWidth, line)
		}
	}
	for _, want := range []string{
		"Corner Mart",
		"250615143045",
		"Milk 500ml",
		"2 x Rs.18.00",
		"Loose Sugar",
		"250g x Rs.200.00/kg",
		"Rs.86.00",
		"Discount (SAVE10)",
		"-Rs.10.00",
		"Rs.89.68",
		"Paid by",
		"Cash",
		"Thank you, visit again!",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("receipt missing %q:\n%s", want, body)
		}
	}
}

func TestRenderSplitPayment(t *testing.T) {
	rec := testRecord()
	rec.PaymentMethod = sales.PaySplit
	rec.Split = &sales.SplitBreakdown{Cash: 50, Online: 39.68}
	body := string(Renderer{}.Render(testSettings, rec))
	if !strings.Contains(body, "Split") || !strings.Contains(body, "Rs.50.00") || !strings.Contains(body, "Rs.39.68") {
		t.Fatalf("split breakdown missing:\n%s", body)
	}
}

func TestRenderRefund(t *testing.T) {
	rec := testRecord()
	rec.IsReturn = true
	rec.OrderNumber = "RET-250615143045"
	rec.Subtotal = -36
	rec.Discount = 0
	rec.Tax = 0
	rec.Total = -36
	rec.Items = []sales.Item{
		{ProductID: "p1", Title: "Milk 500ml", Price: 18, Quantity: 2, Total: -36, Notes: "Returned"},
	}
	body := string(Renderer{}.Render(testSettings, rec))
	if !strings.Contains(body, "*** REFUND ***") {
		t.Fatalf("refund banner missing:\n%s", body)
	}
	if !strings.Contains(body, "-Rs.36.00") {
		t.Fatalf("negated total missing:\n%s", body)
	}
}

func TestRenderFallsBackToCurrencyCode(t *testing.T) {
	st := testSettings
	st.CurrencySymbol = ""
	body := string(Renderer{}.Render(st, testRecord()))
	if !strings.Contains(body, "INR86.00") {
		t.Fatalf("currency code fallback missing:\n%s", body)
	}
}
