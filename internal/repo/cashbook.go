package repo

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/noah-isme/backend-pos/internal/cashbook"
)

// Cashbook persists drawer movements in the "cash_logs" collection.
type Cashbook struct {
	Client *firestore.Client
}

func (r *Cashbook) col() *firestore.CollectionRef {
	return r.Client.Collection("cash_logs")
}

func (r *Cashbook) AddCashEntry(ctx context.Context, e cashbook.Entry) (cashbook.Entry, error) {
	if r == nil || r.Client == nil {
		return cashbook.Entry{}, errors.New("cashbook repo not configured")
	}
	doc := r.col().NewDoc()
	if _, err := doc.Create(ctx, e); err != nil {
		return cashbook.Entry{}, fmt.Errorf("add cash entry: %w", err)
	}
	e.ID = doc.ID
	return e, nil
}

func (r *Cashbook) ListCashEntries(ctx context.Context, date string) ([]cashbook.Entry, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("cashbook repo not configured")
	}
	q := r.col().Query
	if date != "" {
		q = q.Where("date", "==", date)
	}
	iter := q.OrderBy("timestamp", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	entries := make([]cashbook.Entry, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list cash entries: %w", err)
		}
		var e cashbook.Entry
		if err := snap.DataTo(&e); err != nil {
			return nil, fmt.Errorf("decode cash entry %s: %w", snap.Ref.ID, err)
		}
		e.ID = snap.Ref.ID
		entries = append(entries, e)
	}
	return entries, nil
}
