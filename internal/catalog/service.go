package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a product id does not resolve.
var ErrNotFound = errors.New("product not found")

// Product is the catalog document. Stock is counted in units, or grams for
// weight-sold products. MinStock is an informational reorder threshold.
type Product struct {
	ID           string   `json:"id" firestore:"-"`
	Title        string   `json:"title" firestore:"title"`
	Price        float64  `json:"price" firestore:"price"`
	Description  string   `json:"description,omitempty" firestore:"description,omitempty"`
	Image        string   `json:"image,omitempty" firestore:"image,omitempty"`
	Tags         []string `json:"tags,omitempty" firestore:"tags,omitempty"`
	Category     string   `json:"category,omitempty" firestore:"category,omitempty"`
	Stock        int64    `json:"stock" firestore:"stock"`
	MinStock     int64    `json:"minStock,omitempty" firestore:"minStock,omitempty"`
	InStock      bool     `json:"inStock" firestore:"inStock"`
	SoldByWeight bool     `json:"soldByWeight,omitempty" firestore:"soldByWeight,omitempty"`
}

// Store captures the persistence methods required by the catalog service.
type Store interface {
	GetProduct(ctx context.Context, id string) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, id string, p Product) error
	DeleteProduct(ctx context.Context, id string) error
}

// Service manages the product catalog with a read-through list cache.
type Service struct {
	Store Store
	Cache *Cache
}

const listCacheKey = "catalog:products"

// Get fetches one product by id.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	if s == nil || s.Store == nil {
		return Product{}, errors.New("catalog service not configured")
	}
	return s.Store.GetProduct(ctx, strings.TrimSpace(id))
}

// List returns the full catalog, served from cache when warm. A cache
// failure falls back to the store; the catalog read path never depends on
// Redis availability.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("catalog service not configured")
	}
	var cached []Product
	if hit, err := s.Cache.GetJSON(ctx, listCacheKey, &cached); err == nil && hit {
		return cached, nil
	}
	products, err := s.Store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.Cache.SetJSON(ctx, listCacheKey, products)
	return products, nil
}

// LowStock returns products at or below their reorder threshold. The two
// stock fields live on the same document, so the comparison happens here
// rather than in a store query.
func (s *Service) LowStock(ctx context.Context) ([]Product, error) {
	products, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	low := make([]Product, 0)
	for _, p := range products {
		if p.MinStock > 0 && p.Stock <= p.MinStock {
			low = append(low, p)
		}
	}
	return low, nil
}

// Create validates and persists a new product.
func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	if s == nil || s.Store == nil {
		return Product{}, errors.New("catalog service not configured")
	}
	if err := validateProduct(p); err != nil {
		return Product{}, err
	}
	p.InStock = p.Stock > 0
	created, err := s.Store.CreateProduct(ctx, p)
	if err != nil {
		return Product{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

// Update rewrites a product document.
func (s *Service) Update(ctx context.Context, id string, p Product) error {
	if s == nil || s.Store == nil {
		return errors.New("catalog service not configured")
	}
	if err := validateProduct(p); err != nil {
		return err
	}
	p.InStock = p.Stock > 0
	if err := s.Store.UpdateProduct(ctx, id, p); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Delete removes a product from the catalog. Sale records keep their own
// price/title snapshots, so history survives the deletion.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s == nil || s.Store == nil {
		return errors.New("catalog service not configured")
	}
	if err := s.Store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Invalidate drops the cached product list. Inventory adjustments call this
// after stock writes so the next catalog read sees fresh levels.
func (s *Service) Invalidate(ctx context.Context) {
	s.invalidate(ctx)
}

func (s *Service) invalidate(ctx context.Context) {
	_ = s.Cache.Delete(ctx, listCacheKey)
}

func validateProduct(p Product) error {
	if strings.TrimSpace(p.Title) == "" {
		return errors.New("product title is required")
	}
	if p.Price < 0 {
		return fmt.Errorf("product price must not be negative, got %v", p.Price)
	}
	if p.Stock < 0 {
		return fmt.Errorf("product stock must not be negative, got %d", p.Stock)
	}
	return nil
}
