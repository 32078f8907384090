// ABOUTME: Store interface and data types for shop-gateway persistence
// ABOUTME: Defines Product, Cart, CartLine structs and the Store interface for database operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Product is a catalog entry. Owned by the external store; read-only here
// except for seeding.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int64   `json:"stock"`
}

// Cart holds at most one row per external conversation identifier.
type Cart struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CartLine is a cart item joined with its product for display.
// LineTotal is price * qty, computed at read time.
type CartLine struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Qty       int64   `json:"qty"`
	LineTotal float64 `json:"line_total"`
}

// ProductFilter narrows ListProducts results.
type ProductFilter struct {
	// Query matches name or description case-insensitively when non-empty.
	Query string
	// InStockOnly excludes zero-stock products.
	InStockOnly bool
	// Limit caps the number of rows returned. Must be positive.
	Limit int
}

// Store defines the interface for product and cart persistence
type Store interface {
	// Products
	ListProducts(ctx context.Context, filter ProductFilter) ([]*Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	UpsertProduct(ctx context.Context, p *Product) error

	// Carts
	EnsureCart(ctx context.Context, conversationID string) error
	GetCartByConversation(ctx context.Context, conversationID string) (*Cart, error)
	TouchCart(ctx context.Context, cartID int64) error

	// Cart items. UpsertCartItem replaces qty absolutely; absence of a row
	// means quantity zero, so deletes are how qty reaches zero.
	UpsertCartItem(ctx context.Context, cartID, productID, qty int64) error
	DeleteCartItem(ctx context.Context, cartID, productID int64) error
	ListCartItems(ctx context.Context, cartID int64) ([]*CartLine, error)

	// Close releases any resources held by the store
	Close() error
}
