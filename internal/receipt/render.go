package receipt

import (
	"fmt"
	"strings"

	"github.com/noah-isme/backend-pos/internal/sales"
	"github.com/noah-isme/backend-pos/internal/settings"
)

// defaultWidth matches the 32-column thermal paper the printer bridge
// expects.
const defaultWidth = 32

// Renderer produces the plain-text receipt body sent to the printer bridge.
type Renderer struct {
	Width int
}

func (r Renderer) width() int {
	if r.Width > 0 {
		return r.Width
	}
	return defaultWidth
}

// Render lays out one sale as printable text. Refund records use the same
// layout; the negated amounts make the refund obvious on paper.
func (r Renderer) Render(st settings.Store, rec sales.Record) []byte {
	w := r.width()
	var b strings.Builder

	writeCentered := func(s string) {
		s = truncate(s, w)
		pad := (w - len([]rune(s))) / 2
		b.WriteString(strings.Repeat(" ", pad))
		b.WriteString(s)
		b.WriteByte('\n')
	}
	writeRule := func() {
		b.WriteString(strings.Repeat("-", w))
		b.WriteByte('\n')
	}
	writeKV := func(label, value string) {
		gap := w - len([]rune(label)) - len([]rune(value))
		if gap < 1 {
			gap = 1
		}
		b.WriteString(label)
		b.WriteString(strings.Repeat(" ", gap))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	writeCentered(st.StoreName)
	if st.Address != "" {
		writeCentered(st.Address)
	}
	if st.Phone != "" {
		writeCentered(st.Phone)
	}
	writeRule()

	if rec.IsReturn {
		writeCentered("*** REFUND ***")
	}
	writeKV("Order", rec.OrderNumber)
	writeKV("Date", rec.Timestamp.Format("02 Jan 2006 15:04"))
	if rec.TerminalID != "" {
		writeKV("Terminal", rec.TerminalID)
	}
	writeRule()

	for _, it := range rec.Items {
		b.WriteString(truncate(it.Title, w))
		b.WriteByte('\n')
		writeKV("  "+quantityLabel(it, st), money(st, it.Total))
	}
	writeRule()

	writeKV("Subtotal", money(st, rec.Subtotal))
	if rec.Discount > 0 {
		label := "Discount"
		if rec.CouponCode != "" {
			label = "Discount (" + rec.CouponCode + ")"
		}
		writeKV(label, "-"+money(st, rec.Discount))
	}
	if rec.Tax != 0 {
		writeKV("Tax", money(st, rec.Tax))
	}
	writeKV("TOTAL", money(st, rec.Total))
	writeRule()

	writeKV("Paid by", string(rec.PaymentMethod))
	if rec.Split != nil {
		writeKV("  Cash", money(st, rec.Split.Cash))
		writeKV("  Online", money(st, rec.Split.Online))
	}
	b.WriteByte('\n')
	writeCentered("Thank you, visit again!")

	return []byte(b.String())
}

// quantityLabel shows unit lines as "2 x 18.00" and weight lines as grams
// against the per-kilo price.
func quantityLabel(it sales.Item, st settings.Store) string {
	if it.SoldByWeight {
		return fmt.Sprintf("%.0fg x %s/kg", it.Quantity, money(st, it.Price))
	}
	return fmt.Sprintf("%.0f x %s", it.Quantity, money(st, it.Price))
}

func money(st settings.Store, v float64) string {
	symbol := st.CurrencySymbol
	if symbol == "" {
		symbol = st.CurrencyCode
	}
	if v < 0 {
		return fmt.Sprintf("-%s%.2f", symbol, -v)
	}
	return fmt.Sprintf("%s%.2f", symbol, v)
}

func truncate(s string, w int) string {
	runes := []rune(s)
	if len(runes) <= w {
		return s
	}
	return string(runes[:w])
}
