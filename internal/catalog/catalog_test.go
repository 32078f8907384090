// ABOUTME: Tests for catalog search and lookup
// ABOUTME: Covers limit clamping, stock filtering, and null-product lookups

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/laburen/shop-gateway/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.SQLiteStore) {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s, slog.Default()), s
}

func seedProducts(t *testing.T, s *store.SQLiteStore, n int, stock int64) {
	t.Helper()
	for i := 1; i <= n; i++ {
		err := s.UpsertProduct(context.Background(), &store.Product{
			ID:          int64(i),
			Name:        fmt.Sprintf("Product %d", i),
			Description: "widget",
			Price:       float64(i),
			Stock:       stock,
		})
		if err != nil {
			t.Fatalf("UpsertProduct failed: %v", err)
		}
	}
}

func TestSearch_DefaultLimit(t *testing.T) {
	svc, s := newTestService(t)
	seedProducts(t, s, 15, 10)

	result, err := svc.Search(context.Background(), "", false, 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if result.Count != DefaultLimit {
		t.Errorf("expected %d results, got %d", DefaultLimit, result.Count)
	}
}

func TestSearch_ClampsLimit(t *testing.T) {
	svc, s := newTestService(t)
	seedProducts(t, s, 60, 10)

	result, err := svc.Search(context.Background(), "", false, 200)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if result.Count != MaxLimit {
		t.Errorf("expected %d results, got %d", MaxLimit, result.Count)
	}
}

func TestSearch_InStockOnly(t *testing.T) {
	svc, s := newTestService(t)
	seedProducts(t, s, 3, 0)
	err := s.UpsertProduct(context.Background(), &store.Product{
		ID: 10, Name: "Available", Description: "widget", Price: 5, Stock: 2,
	})
	if err != nil {
		t.Fatalf("UpsertProduct failed: %v", err)
	}

	result, err := svc.Search(context.Background(), "", true, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if result.Count != 1 {
		t.Fatalf("expected 1 result, got %d", result.Count)
	}
	if result.Products[0].ID != 10 {
		t.Errorf("expected product 10, got %d", result.Products[0].ID)
	}
}

func TestSearch_NoMatches(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.Search(context.Background(), "anything", true, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if result.Count != 0 {
		t.Errorf("expected 0 results, got %d", result.Count)
	}
	if result.Products == nil {
		t.Error("expected non-nil empty slice for JSON encoding")
	}
}

func TestGet_Found(t *testing.T) {
	svc, s := newTestService(t)
	seedProducts(t, s, 1, 5)

	result, err := svc.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if result.Product == nil {
		t.Fatal("expected a product")
	}
	if result.Product.Name != "Product 1" {
		t.Errorf("unexpected name: %s", result.Product.Name)
	}
}

func TestGet_UnknownIDIsNull(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.Get(context.Background(), 999)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if result.Product != nil {
		t.Errorf("expected null product, got %+v", result.Product)
	}
}
