// ABOUTME: Cart tools: create, update, and fetch carts keyed by conversation.
// ABOUTME: Item entries are decoded leniently; malformed entries are skipped.

package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/laburen/shop-gateway/internal/cart"
)

// create_cart accepts an optional initial item list; update_cart requires
// one, since an update without items is a no-op the caller did not intend.
const (
	createCartSchema = `{"type":"object","properties":{"conversation_id":{"type":"string"},"items":{"type":"array","items":{"type":"object","properties":{"product_id":{"type":"number"},"qty":{"type":"number"}},"required":["product_id","qty"]}}},"required":["conversation_id"]}`
	updateCartSchema = `{"type":"object","properties":{"conversation_id":{"type":"string"},"items":{"type":"array","items":{"type":"object","properties":{"product_id":{"type":"number"},"qty":{"type":"number"}},"required":["product_id","qty"]}}},"required":["conversation_id","items"]}`
)

// CartTools returns the cart manipulation tools backed by the cart service.
func CartTools(svc *cart.Service) []*Tool {
	h := &cartHandlers{cart: svc}
	return []*Tool{
		{
			Definition: Definition{
				Name:        "create_cart",
				Description: "Create a cart for a conversation, optionally with initial items. Idempotent per conversation.",
				InputSchema: json.RawMessage(createCartSchema),
			},
			Handler: h.CreateCart,
		},
		{
			Definition: Definition{
				Name:        "update_cart",
				Description: "Set item quantities in a conversation's cart. A qty of 0 removes the item.",
				InputSchema: json.RawMessage(updateCartSchema),
			},
			Handler: h.UpdateCart,
		},
		{
			Definition: Definition{
				Name:        "get_cart",
				Description: "Fetch a conversation's cart with line items and total.",
				InputSchema: json.RawMessage(`{"type":"object","properties":{"conversation_id":{"type":"string"}},"required":["conversation_id"]}`),
			},
			Handler: h.GetCart,
		},
	}
}

type cartHandlers struct {
	cart *cart.Service
}

type cartInput struct {
	ConversationID string            `json:"conversation_id"`
	Items          []json.RawMessage `json:"items"`
}

type cartItemEntry struct {
	ProductID int64 `json:"product_id"`
	Qty       int64 `json:"qty"`
}

// decodeItems decodes item entries one at a time so a single malformed
// entry does not fail the whole call. Entries whose product_id or qty is
// not numeric are dropped.
func decodeItems(raw []json.RawMessage) []cart.Item {
	items := make([]cart.Item, 0, len(raw))
	for _, r := range raw {
		var e cartItemEntry
		if err := json.Unmarshal(r, &e); err != nil {
			continue
		}
		items = append(items, cart.Item{ProductID: e.ProductID, Qty: e.Qty})
	}
	return items
}

func (h *cartHandlers) CreateCart(ctx context.Context, args json.RawMessage) (any, error) {
	var in cartInput
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	return h.cart.Create(ctx, in.ConversationID, decodeItems(in.Items))
}

func (h *cartHandlers) UpdateCart(ctx context.Context, args json.RawMessage) (any, error) {
	var in cartInput
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	return h.cart.Update(ctx, in.ConversationID, decodeItems(in.Items))
}

func (h *cartHandlers) GetCart(ctx context.Context, args json.RawMessage) (any, error) {
	var in cartInput
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	return h.cart.Get(ctx, in.ConversationID)
}
