package repo

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/noah-isme/backend-pos/internal/sales"
)

// Sales persists the append-only ledger in the "sales" collection. Records
// are only ever added; there is no update or delete path.
type Sales struct {
	Client *firestore.Client
}

func (r *Sales) col() *firestore.CollectionRef {
	return r.Client.Collection("sales")
}

func (r *Sales) AddSale(ctx context.Context, rec sales.Record) (sales.Record, error) {
	if r == nil || r.Client == nil {
		return sales.Record{}, errors.New("sales repo not configured")
	}
	doc := r.col().NewDoc()
	if _, err := doc.Create(ctx, rec); err != nil {
		return sales.Record{}, fmt.Errorf("add sale %s: %w", rec.OrderNumber, err)
	}
	rec.ID = doc.ID
	return rec, nil
}

func (r *Sales) GetSaleByOrderNumber(ctx context.Context, orderNumber string) (sales.Record, error) {
	if r == nil || r.Client == nil {
		return sales.Record{}, errors.New("sales repo not configured")
	}
	iter := r.col().Where("orderNumber", "==", orderNumber).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return sales.Record{}, sales.ErrNotFound
	}
	if err != nil {
		return sales.Record{}, fmt.Errorf("query sale %s: %w", orderNumber, err)
	}
	return docToSale(snap)
}

func (r *Sales) OrderNumberExists(ctx context.Context, orderNumber string) (bool, error) {
	_, err := r.GetSaleByOrderNumber(ctx, orderNumber)
	if errors.Is(err, sales.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListSales returns records newest first, optionally bounded by inclusive
// calendar-day strings. The derived date field keeps this an indexed range
// query instead of a timestamp scan.
func (r *Sales) ListSales(ctx context.Context, startDate, endDate string) ([]sales.Record, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("sales repo not configured")
	}
	q := r.col().Query
	if startDate != "" {
		q = q.Where("date", ">=", startDate)
	}
	if endDate != "" {
		q = q.Where("date", "<=", endDate)
	}
	iter := q.OrderBy("date", firestore.Desc).OrderBy("timestamp", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	records := make([]sales.Record, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list sales: %w", err)
		}
		rec, err := docToSale(snap)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func docToSale(snap *firestore.DocumentSnapshot) (sales.Record, error) {
	var rec sales.Record
	if err := snap.DataTo(&rec); err != nil {
		return sales.Record{}, fmt.Errorf("decode sale %s: %w", snap.Ref.ID, err)
	}
	rec.ID = snap.Ref.ID
	return rec, nil
}
