package settings

import (
	"context"
	"testing"
	"time"
)

type stubRepo struct {
	doc   *Store
	saved *Store
}

func (s *stubRepo) GetSettings(ctx context.Context) (Store, error) {
	if s.doc == nil {
		return Store{}, ErrNotFound
	}
	return *s.doc, nil
}

func (s *stubRepo) SaveSettings(ctx context.Context, st Store) error {
	s.saved = &st
	return nil
}

var defaults = Store{
	StoreName:      "Corner Mart",
	CurrencyCode:   "INR",
	CurrencySymbol: "₹",
	TaxPercent:     18,
}

func TestGetFallsBackToDefaults(t *testing.T) {
	svc := &Service{Repo: &stubRepo{}, Defaults: defaults}
	st, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if st != defaults {
		t.Fatalf("expected defaults, got %+v", st)
	}
}

func TestGetPrefersPersistedDocument(t *testing.T) {
	doc := Store{StoreName: "Main Branch", CurrencyCode: "INR", CurrencySymbol: "₹", TaxPercent: 12}
	svc := &Service{Repo: &stubRepo{doc: &doc}, Defaults: defaults}
	st, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if st.StoreName != "Main Branch" || st.TaxPercent != 12 {
		t.Fatalf("persisted document must win: %+v", st)
	}
}

func TestSaveValidates(t *testing.T) {
	repo := &stubRepo{}
	svc := &Service{Repo: repo, Defaults: defaults, Now: func() time.Time {
		return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	}}

	if _, err := svc.Save(context.Background(), Store{TaxPercent: 5}); err == nil {
		t.Fatal("missing store name must be rejected")
	}
	if _, err := svc.Save(context.Background(), Store{StoreName: "X", TaxPercent: 120}); err == nil {
		t.Fatal("tax percent above 100 must be rejected")
	}
	if _, err := svc.Save(context.Background(), Store{StoreName: "X", PrinterEnabled: true}); err == nil {
		t.Fatal("printing without a printer url must be rejected")
	}

	saved, err := svc.Save(context.Background(), Store{StoreName: "X", TaxPercent: 18})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if saved.CurrencyCode != "INR" || saved.CurrencySymbol != "₹" {
		t.Fatalf("blank currency must inherit defaults: %+v", saved)
	}
	if saved.UpdatedAt.IsZero() || repo.saved == nil {
		t.Fatal("save must stamp and persist the document")
	}
}
