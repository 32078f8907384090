// ABOUTME: Read-only catalog queries over the product collection.
// ABOUTME: Applies the stock filter and clamps result limits for determinism.

package catalog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/laburen/shop-gateway/internal/store"
)

// DefaultLimit is the number of products returned when no limit is requested.
const DefaultLimit = 10

// MaxLimit caps the number of products a single search can return,
// regardless of the requested limit.
const MaxLimit = 50

// SearchResult is the payload returned by Search.
type SearchResult struct {
	Products []*store.Product `json:"products"`
	Count    int              `json:"count"`
}

// ProductResult is the payload returned by Get. Product is null when the
// id does not match anything; a missing product is not an error.
type ProductResult struct {
	Product *store.Product `json:"product"`
}

// Service answers read-only queries over the product collection.
type Service struct {
	store  store.Store
	logger *slog.Logger
}

// New creates a catalog service backed by the given store.
func New(s store.Store, logger *slog.Logger) *Service {
	return &Service{
		store:  s,
		logger: logger,
	}
}

// Search lists products matching query, optionally including out-of-stock
// items. A non-positive limit falls back to DefaultLimit; any limit above
// MaxLimit is clamped.
func (s *Service) Search(ctx context.Context, query string, inStockOnly bool, limit int) (*SearchResult, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	products, err := s.store.ListProducts(ctx, store.ProductFilter{
		Query:       query,
		InStockOnly: inStockOnly,
		Limit:       limit,
	})
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []*store.Product{}
	}

	s.logger.Debug("catalog search", "query", query, "in_stock_only", inStockOnly, "count", len(products))

	return &SearchResult{Products: products, Count: len(products)}, nil
}

// Get looks up a single product by id. An unknown id yields a nil Product,
// not an error.
func (s *Service) Get(ctx context.Context, id int64) (*ProductResult, error) {
	product, err := s.store.GetProduct(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return &ProductResult{Product: nil}, nil
	}
	if err != nil {
		return nil, err
	}
	return &ProductResult{Product: product}, nil
}
