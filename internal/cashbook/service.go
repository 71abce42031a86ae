package cashbook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Direction marks which way cash moved through the drawer.
type Direction string

const (
	// In records cash added to the drawer (float, paid-in).
	In Direction = "IN"
	// Out records cash removed from the drawer (expense, paid-out).
	Out Direction = "OUT"
)

// Entry is one immutable drawer movement. Entries are never edited or
// deleted; corrections are new entries in the opposite direction.
type Entry struct {
	ID         string    `json:"id" firestore:"-"`
	Direction  Direction `json:"direction" firestore:"direction"`
	Amount     float64   `json:"amount" firestore:"amount"`
	Reason     string    `json:"reason" firestore:"reason"`
	TerminalID string    `json:"terminalId,omitempty" firestore:"terminalId,omitempty"`
	Timestamp  time.Time `json:"timestamp" firestore:"timestamp"`
	Date       string    `json:"date" firestore:"date"`
}

// Store captures the persistence methods required by the cash ledger.
type Store interface {
	AddCashEntry(ctx context.Context, e Entry) (Entry, error)
	ListCashEntries(ctx context.Context, date string) ([]Entry, error)
}

// Service appends and lists drawer movements.
type Service struct {
	Store Store
	Now   func() time.Time
}

// Add validates and appends one movement. Amounts are always positive; the
// direction carries the sign.
func (s *Service) Add(ctx context.Context, e Entry) (Entry, error) {
	if s == nil || s.Store == nil {
		return Entry{}, errors.New("cashbook service not configured")
	}
	if e.Direction != In && e.Direction != Out {
		return Entry{}, fmt.Errorf("unknown direction %q", e.Direction)
	}
	if e.Amount <= 0 {
		return Entry{}, fmt.Errorf("amount must be positive, got %v", e.Amount)
	}
	e.Reason = strings.TrimSpace(e.Reason)
	if e.Reason == "" {
		return Entry{}, errors.New("reason is required")
	}
	now := s.now()
	e.Timestamp = now
	e.Date = now.Format("2006-01-02")
	return s.Store.AddCashEntry(ctx, e)
}

// List returns movements for one calendar day, or all when date is empty.
func (s *Service) List(ctx context.Context, date string) ([]Entry, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("cashbook service not configured")
	}
	return s.Store.ListCashEntries(ctx, strings.TrimSpace(date))
}

// Balance folds a day's movements into a net drawer figure.
func (s *Service) Balance(ctx context.Context, date string) (float64, error) {
	entries, err := s.List(ctx, date)
	if err != nil {
		return 0, err
	}
	var net float64
	for _, e := range entries {
		switch e.Direction {
		case In:
			net += e.Amount
		case Out:
			net -= e.Amount
		}
	}
	return net, nil
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
