// Package store provides persistent storage for the gateway using SQLite.
//
// # Data Models
//
//   - Product: Catalog entry with price and stock (read-only at runtime,
//     written only by seeding)
//   - Cart: One row per external conversation identifier, created lazily
//   - CartLine: Cart item joined with its product, with a computed line total
//
// The cart invariant is enforced by the schema: at most one cart_items row
// per (cart_id, product_id), qty always positive. A quantity of zero is
// represented by the absence of a row.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Use NewSQLiteStore(":memory:") for tests with a real database.
//
// # Error Handling
//
// ErrNotFound is returned when a requested entity does not exist. All methods
// accept context.Context for cancellation support.
//
// # Seeding
//
// ImportProductsCSV loads a product catalog from a CSV file with columns
// id,name,description,price,stock. See the "seed" CLI subcommand.
package store
