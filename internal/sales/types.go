package sales

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no sale matches the requested order number.
var ErrNotFound = errors.New("sale not found")

// PaymentMethod identifies how a sale was settled.
type PaymentMethod string

const (
	// PayCash settles the full amount at the drawer.
	PayCash PaymentMethod = "Cash"
	// PayOnline settles the full amount through the payment gateway.
	PayOnline PaymentMethod = "Online"
	// PaySplit settles across cash and online instruments.
	PaySplit PaymentMethod = "Split"
)

// SplitBreakdown records how a split payment was divided.
type SplitBreakdown struct {
	Cash   float64 `json:"cash" firestore:"cash"`
	Online float64 `json:"online" firestore:"online"`
}

// Item is the immutable line snapshot stored on a sale. Price and title are
// copied from the cart snapshot, so later catalog edits never corrupt
// history.
type Item struct {
	ProductID    string  `json:"productId" firestore:"productId"`
	Title        string  `json:"title" firestore:"title"`
	Price        float64 `json:"price" firestore:"price"`
	Quantity     float64 `json:"quantity" firestore:"quantity"`
	Total        float64 `json:"total" firestore:"total"`
	Notes        string  `json:"notes,omitempty" firestore:"notes,omitempty"`
	SoldByWeight bool    `json:"soldByWeight,omitempty" firestore:"soldByWeight,omitempty"`
}

// Record is one immutable entry in the sales ledger. Returns are stored as
// negated records pointing back at the original order.
type Record struct {
	ID              string          `json:"id" firestore:"-"`
	OrderNumber     string          `json:"orderNumber" firestore:"orderNumber"`
	Items           []Item          `json:"items" firestore:"items"`
	Subtotal        float64         `json:"subtotal" firestore:"subtotal"`
	Discount        float64         `json:"discount" firestore:"discount"`
	CouponCode      string          `json:"couponCode,omitempty" firestore:"couponCode,omitempty"`
	Tax             float64         `json:"tax" firestore:"tax"`
	Total           float64         `json:"total" firestore:"total"`
	Currency        string          `json:"currency" firestore:"currency"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" firestore:"paymentMethod"`
	Split           *SplitBreakdown `json:"split,omitempty" firestore:"split,omitempty"`
	TerminalID      string          `json:"terminalId,omitempty" firestore:"terminalId,omitempty"`
	Timestamp       time.Time       `json:"timestamp" firestore:"timestamp"`
	Date            string          `json:"date" firestore:"date"`
	IsReturn        bool            `json:"isReturn,omitempty" firestore:"isReturn,omitempty"`
	OriginalOrderID string          `json:"originalOrderId,omitempty" firestore:"originalOrderId,omitempty"`
}

// Store captures the persistence methods required by the sales ledger.
// AddSale must append; existing records are never updated or deleted.
type Store interface {
	AddSale(ctx context.Context, rec Record) (Record, error)
	GetSaleByOrderNumber(ctx context.Context, orderNumber string) (Record, error)
	OrderNumberExists(ctx context.Context, orderNumber string) (bool, error)
	ListSales(ctx context.Context, startDate, endDate string) ([]Record, error)
}
