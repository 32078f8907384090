// ABOUTME: Catalog tools: product search and single-product lookup.
// ABOUTME: Read-only; backed by the catalog query service.

package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/laburen/shop-gateway/internal/catalog"
)

// CatalogTools returns the product search tools backed by the catalog service.
func CatalogTools(svc *catalog.Service) []*Tool {
	h := &catalogHandlers{catalog: svc}
	return []*Tool{
		{
			Definition: Definition{
				Name:        "list_products",
				Description: "Search and list products. Optional filters by text and stock.",
				InputSchema: json.RawMessage(`{"type":"object","properties":{"q":{"type":"string"},"inStockOnly":{"type":"boolean","default":true},"limit":{"type":"number","default":10}}}`),
			},
			Handler: h.ListProducts,
		},
		{
			Definition: Definition{
				Name:        "get_product",
				Description: "Product detail by id.",
				InputSchema: json.RawMessage(`{"type":"object","properties":{"id":{"type":"number"}},"required":["id"]}`),
			},
			Handler: h.GetProduct,
		},
	}
}

type catalogHandlers struct {
	catalog *catalog.Service
}

type listProductsInput struct {
	Q           string `json:"q"`
	InStockOnly *bool  `json:"inStockOnly"`

	// Limit is decoded as float64 to match the advertised number type;
	// fractional values are truncated rather than rejected.
	Limit float64 `json:"limit"`
}

func (h *catalogHandlers) ListProducts(ctx context.Context, args json.RawMessage) (any, error) {
	var in listProductsInput
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	// Stock filtering defaults on; callers must opt out explicitly.
	inStockOnly := true
	if in.InStockOnly != nil {
		inStockOnly = *in.InStockOnly
	}

	return h.catalog.Search(ctx, in.Q, inStockOnly, int(in.Limit))
}

type getProductInput struct {
	ID float64 `json:"id"`
}

func (h *catalogHandlers) GetProduct(ctx context.Context, args json.RawMessage) (any, error) {
	var in getProductInput
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	return h.catalog.Get(ctx, int64(in.ID))
}
