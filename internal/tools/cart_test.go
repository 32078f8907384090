// ABOUTME: Tests for cart tool argument decoding and schema enforcement
// ABOUTME: Covers lenient item parsing and the required-items contract on update

package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/laburen/shop-gateway/internal/cart"
	"github.com/laburen/shop-gateway/internal/store"
)

func newCartDispatcher(t *testing.T) *Dispatcher {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	svc := cart.New(s, slog.Default())

	registry := NewRegistry(slog.Default())
	if err := registry.Register(CartTools(svc)...); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return NewDispatcher(registry, slog.Default())
}

func TestDecodeItems_SkipsMalformedEntries(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"product_id":1,"qty":2}`),
		json.RawMessage(`{"product_id":"oops","qty":2}`),
		json.RawMessage(`{"product_id":3,"qty":"many"}`),
		json.RawMessage(`"not an object"`),
		json.RawMessage(`{"product_id":4,"qty":0}`),
	}

	items := decodeItems(raw)

	if len(items) != 2 {
		t.Fatalf("expected 2 valid items, got %d", len(items))
	}
	if items[0].ProductID != 1 || items[0].Qty != 2 {
		t.Errorf("unexpected first item: %+v", items[0])
	}
	if items[1].ProductID != 4 || items[1].Qty != 0 {
		t.Errorf("unexpected second item: %+v", items[1])
	}
}

func TestDecodeItems_Empty(t *testing.T) {
	if items := decodeItems(nil); len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}

func TestUpdateCart_RequiresItems(t *testing.T) {
	d := newCartDispatcher(t)

	result := d.Dispatch(context.Background(), "update_cart", json.RawMessage(`{"conversation_id":"c1"}`))

	if !result.IsError {
		t.Fatalf("expected validation failure, got success: %v", result.Content)
	}
	if !strings.Contains(result.Content[0].Text, `missing required argument "items"`) {
		t.Errorf("unexpected message: %q", result.Content[0].Text)
	}
}

func TestUpdateCart_EmptyItemListAccepted(t *testing.T) {
	d := newCartDispatcher(t)

	result := d.Dispatch(context.Background(), "update_cart", json.RawMessage(`{"conversation_id":"c1","items":[]}`))

	if result.IsError {
		t.Fatalf("expected success with an explicit empty list, got %v", result.Content)
	}
}

func TestCreateCart_ItemsOptional(t *testing.T) {
	d := newCartDispatcher(t)

	result := d.Dispatch(context.Background(), "create_cart", json.RawMessage(`{"conversation_id":"c1"}`))

	if result.IsError {
		t.Fatalf("expected success without items, got %v", result.Content)
	}
}
