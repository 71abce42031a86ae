package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by stores when the settings document is absent.
var ErrNotFound = errors.New("settings not found")

// Store is the single persisted settings document. Checkout and receipt
// rendering read an immutable snapshot of it per request, so a concurrent
// settings edit never changes a sale mid-settlement.
type Store struct {
	StoreName      string  `json:"storeName" firestore:"storeName"`
	Address        string  `json:"address,omitempty" firestore:"address,omitempty"`
	Phone          string  `json:"phone,omitempty" firestore:"phone,omitempty"`
	CurrencyCode   string  `json:"currencyCode" firestore:"currencyCode"`
	CurrencySymbol string  `json:"currencySymbol" firestore:"currencySymbol"`
	TaxPercent     float64 `json:"taxPercent" firestore:"taxPercent"`
	PrinterEnabled bool    `json:"printerEnabled" firestore:"printerEnabled"`
	PrinterURL     string  `json:"printerUrl,omitempty" firestore:"printerUrl,omitempty"`
	RazorpayKeyID  string  `json:"razorpayKeyId,omitempty" firestore:"razorpayKeyId,omitempty"`

	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// Repository persists the settings document.
type Repository interface {
	GetSettings(ctx context.Context) (Store, error)
	SaveSettings(ctx context.Context, s Store) error
}

// Service reads and writes store settings with env-derived defaults for a
// fresh installation.
type Service struct {
	Repo     Repository
	Defaults Store
	Now      func() time.Time
}

// Get returns the persisted settings, or the configured defaults when no
// document has been written yet.
func (s *Service) Get(ctx context.Context) (Store, error) {
	if s == nil || s.Repo == nil {
		return Store{}, errors.New("settings service not configured")
	}
	st, err := s.Repo.GetSettings(ctx)
	if errors.Is(err, ErrNotFound) {
		return s.Defaults, nil
	}
	if err != nil {
		return Store{}, fmt.Errorf("load settings: %w", err)
	}
	return st, nil
}

// Save validates and persists the settings document.
func (s *Service) Save(ctx context.Context, st Store) (Store, error) {
	if s == nil || s.Repo == nil {
		return Store{}, errors.New("settings service not configured")
	}
	if strings.TrimSpace(st.StoreName) == "" {
		return Store{}, errors.New("store name is required")
	}
	if st.TaxPercent < 0 || st.TaxPercent > 100 {
		return Store{}, fmt.Errorf("tax percent must be between 0 and 100, got %v", st.TaxPercent)
	}
	if st.CurrencyCode == "" {
		st.CurrencyCode = s.Defaults.CurrencyCode
	}
	if st.CurrencySymbol == "" {
		st.CurrencySymbol = s.Defaults.CurrencySymbol
	}
	if st.PrinterEnabled && strings.TrimSpace(st.PrinterURL) == "" {
		return Store{}, errors.New("printer url is required when printing is enabled")
	}
	st.UpdatedAt = s.now()
	if err := s.Repo.SaveSettings(ctx, st); err != nil {
		return Store{}, fmt.Errorf("save settings: %w", err)
	}
	return st, nil
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
