package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/noah-isme/backend-pos/internal/catalog"
	"github.com/noah-isme/backend-pos/internal/inventory"
)

// Products persists the catalog in the "products" collection. It backs both
// the catalog service and the inventory stock gate, so the stock a checkout
// validates against is the same document a concurrent register writes.
type Products struct {
	Client *firestore.Client
}

func (r *Products) col() *firestore.CollectionRef {
	return r.Client.Collection("products")
}

func (r *Products) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	if r == nil || r.Client == nil {
		return catalog.Product{}, errors.New("products repo not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return catalog.Product{}, catalog.ErrNotFound
	}
	snap, err := r.col().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return catalog.Product{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return docToProduct(snap)
}

func (r *Products) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("products repo not configured")
	}
	iter := r.col().OrderBy("title", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	products := make([]catalog.Product, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		p, err := docToProduct(snap)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (r *Products) CreateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	if r == nil || r.Client == nil {
		return catalog.Product{}, errors.New("products repo not configured")
	}
	doc := r.col().NewDoc()
	if _, err := doc.Create(ctx, p); err != nil {
		return catalog.Product{}, fmt.Errorf("create product: %w", err)
	}
	p.ID = doc.ID
	return p, nil
}

func (r *Products) UpdateProduct(ctx context.Context, id string, p catalog.Product) error {
	if r == nil || r.Client == nil {
		return errors.New("products repo not configured")
	}
	_, err := r.col().Doc(id).Set(ctx, p)
	if status.Code(err) == codes.NotFound {
		return catalog.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update product %s: %w", id, err)
	}
	return nil
}

func (r *Products) DeleteProduct(ctx context.Context, id string) error {
	if r == nil || r.Client == nil {
		return errors.New("products repo not configured")
	}
	if _, err := r.col().Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	return nil
}

// AdjustStock applies a stock delta inside a Firestore transaction so the
// read-modify-write cannot interleave with another register. A negative
// result either clamps to zero or rejects, per clampZero.
func (r *Products) AdjustStock(ctx context.Context, productID string, delta int64, clampZero bool) (int64, error) {
	if r == nil || r.Client == nil {
		return 0, errors.New("products repo not configured")
	}
	ref := r.col().Doc(productID)
	var level int64
	err := r.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return catalog.ErrNotFound
		}
		if err != nil {
			return err
		}
		var p catalog.Product
		if err := snap.DataTo(&p); err != nil {
			return fmt.Errorf("decode product %s: %w", productID, err)
		}
		next := p.Stock + delta
		if next < 0 {
			if !clampZero {
				return fmt.Errorf("%w: product %s has %d, requested %d",
					inventory.ErrInsufficientStock, productID, p.Stock, -delta)
			}
			next = 0
		}
		level = next
		return tx.Update(ref, []firestore.Update{
			{Path: "stock", Value: next},
			{Path: "inStock", Value: next > 0},
		})
	})
	if err != nil {
		return 0, err
	}
	return level, nil
}

func docToProduct(snap *firestore.DocumentSnapshot) (catalog.Product, error) {
	var p catalog.Product
	if err := snap.DataTo(&p); err != nil {
		return catalog.Product{}, fmt.Errorf("decode product %s: %w", snap.Ref.ID, err)
	}
	p.ID = snap.Ref.ID
	return p, nil
}
