// ABOUTME: Cart reconciliation: idempotent creation, item merge with stock validation, totals.
// ABOUTME: Serializes mutations per conversation and applies item lists all-or-nothing.

package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/laburen/shop-gateway/internal/store"
)

// Item is one (product, quantity) pair in a reconciliation request.
// Qty is an absolute replacement for the product's row, not an increment;
// qty <= 0 removes the row.
type Item struct {
	ProductID int64 `json:"product_id"`
	Qty       int64 `json:"qty"`
}

// View is the full cart view returned by every cart operation.
// Cart is null and Items empty when no cart exists for the conversation.
type View struct {
	Cart  *store.Cart       `json:"cart"`
	Items []*store.CartLine `json:"items"`
	Total float64           `json:"total"`
}

// StockError reports a requested quantity exceeding available stock.
type StockError struct {
	ProductID int64
	Available int64
	Requested int64
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: available=%d, requested=%d",
		e.ProductID, e.Available, e.Requested)
}

// Service reconciles per-conversation carts against the product catalog.
type Service struct {
	store  store.Store
	logger *slog.Logger

	// locks serializes mutations per conversation. Held across the whole
	// validate-then-write sequence so two concurrent updates for the same
	// conversation cannot both pass stock checks against stale figures.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a cart service backed by the given store.
func New(s store.Store, logger *slog.Logger) *Service {
	return &Service{
		store:  s,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// conversationLock returns the mutex guarding a conversation's cart,
// creating it on first use. Locks are never removed; the conversation
// space is bounded by the external messaging platform.
func (s *Service) conversationLock(conversationID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[conversationID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[conversationID] = lock
	}
	return lock
}

// Create idempotently ensures a cart exists for the conversation, applies
// any initial items, and returns the full cart view. Calling it twice with
// the same conversation id yields one cart, not two.
func (s *Service) Create(ctx context.Context, conversationID string, items []Item) (*View, error) {
	lock := s.conversationLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	return s.createLocked(ctx, conversationID, items)
}

// Update applies an item list to the conversation's cart. If no cart exists
// yet it falls back to Create with the same items.
func (s *Service) Update(ctx context.Context, conversationID string, items []Item) (*View, error) {
	lock := s.conversationLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	cart, err := s.store.GetCartByConversation(ctx, conversationID)
	if errors.Is(err, store.ErrNotFound) {
		return s.createLocked(ctx, conversationID, items)
	}
	if err != nil {
		return nil, err
	}

	if err := s.applyItems(ctx, cart.ID, items); err != nil {
		return nil, err
	}
	if err := s.store.TouchCart(ctx, cart.ID); err != nil {
		return nil, err
	}

	return s.view(ctx, conversationID)
}

// Get returns the conversation's cart with joined items and grand total.
// An unknown conversation yields {cart: null, items: [], total: 0}, never
// an error.
func (s *Service) Get(ctx context.Context, conversationID string) (*View, error) {
	return s.view(ctx, conversationID)
}

// createLocked is Create without lock acquisition; callers hold the
// conversation lock.
func (s *Service) createLocked(ctx context.Context, conversationID string, items []Item) (*View, error) {
	if err := s.store.EnsureCart(ctx, conversationID); err != nil {
		return nil, err
	}

	cart, err := s.store.GetCartByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("reading cart after create: %w", err)
	}

	if len(items) > 0 {
		if err := s.applyItems(ctx, cart.ID, items); err != nil {
			return nil, err
		}
		if err := s.store.TouchCart(ctx, cart.ID); err != nil {
			return nil, err
		}
	}

	return s.view(ctx, conversationID)
}

// resolvedItem is an item entry that survived validation, with the write
// decided up front.
type resolvedItem struct {
	productID int64
	qty       int64
	delete    bool
}

// applyItems merges an item list into a cart, all-or-nothing: every entry
// is validated against current stock before any row is written, so a stock
// shortage leaves the cart untouched. Entries referencing unknown products
// are skipped silently. Within one call the last entry for a product wins.
func (s *Service) applyItems(ctx context.Context, cartID int64, items []Item) error {
	resolved := make([]resolvedItem, 0, len(items))

	for _, item := range items {
		if item.ProductID <= 0 {
			continue
		}

		product, err := s.store.GetProduct(ctx, item.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Debug("skipping unknown product in item list", "product_id", item.ProductID)
			continue
		}
		if err != nil {
			return err
		}

		if item.Qty > 0 && item.Qty > product.Stock {
			return &StockError{
				ProductID: item.ProductID,
				Available: product.Stock,
				Requested: item.Qty,
			}
		}

		resolved = append(resolved, resolvedItem{
			productID: item.ProductID,
			qty:       item.Qty,
			delete:    item.Qty <= 0,
		})
	}

	for _, r := range resolved {
		if r.delete {
			if err := s.store.DeleteCartItem(ctx, cartID, r.productID); err != nil {
				return err
			}
			continue
		}
		if err := s.store.UpsertCartItem(ctx, cartID, r.productID, r.qty); err != nil {
			return err
		}
	}

	return nil
}

// view assembles the full cart view for a conversation.
func (s *Service) view(ctx context.Context, conversationID string) (*View, error) {
	cart, err := s.store.GetCartByConversation(ctx, conversationID)
	if errors.Is(err, store.ErrNotFound) {
		return &View{Cart: nil, Items: []*store.CartLine{}, Total: 0}, nil
	}
	if err != nil {
		return nil, err
	}

	lines, err := s.store.ListCartItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []*store.CartLine{}
	}

	var total float64
	for _, line := range lines {
		total += line.LineTotal
	}

	return &View{Cart: cart, Items: lines, Total: total}, nil
}
