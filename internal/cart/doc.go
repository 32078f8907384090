// Package cart reconciles per-conversation shopping carts.
//
// Every operation returns the full cart view (cart, joined items, grand
// total). Item lists are declarative: each entry's quantity replaces the
// cart row outright, and a quantity of zero or less removes it. An item
// list is applied all-or-nothing; a stock shortage rejects the whole list
// and leaves the cart unchanged.
//
// Mutations for the same conversation are serialized on an in-process
// mutex, so concurrent updates cannot validate stock against stale rows.
package cart
