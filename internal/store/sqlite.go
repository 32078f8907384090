// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides product/cart persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS products (
			id          INTEGER PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price       REAL NOT NULL,
			stock       INTEGER NOT NULL DEFAULT 0,

			CHECK (price >= 0),
			CHECK (stock >= 0)
		);

		CREATE TABLE IF NOT EXISTS carts (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id TEXT NOT NULL UNIQUE,
			created_at      TEXT NOT NULL,
			updated_at      TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_carts_conversation
			ON carts(conversation_id);

		CREATE TABLE IF NOT EXISTS cart_items (
			cart_id    INTEGER NOT NULL REFERENCES carts(id),
			product_id INTEGER NOT NULL REFERENCES products(id),
			qty        INTEGER NOT NULL,

			UNIQUE(cart_id, product_id),
			CHECK (qty > 0)
		);

		CREATE INDEX IF NOT EXISTS idx_cart_items_cart
			ON cart_items(cart_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// ListProducts returns products matching the filter, ordered by id ascending
// for deterministic results.
func (s *SQLiteStore) ListProducts(ctx context.Context, filter ProductFilter) ([]*Product, error) {
	var where []string
	var args []any

	if q := strings.TrimSpace(filter.Query); q != "" {
		where = append(where, "(name LIKE ? COLLATE NOCASE OR description LIKE ? COLLATE NOCASE)")
		pattern := "%" + q + "%"
		args = append(args, pattern, pattern)
	}
	if filter.InStockOnly {
		where = append(where, "stock > 0")
	}

	query := "SELECT id, name, description, price, stock FROM products"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id ASC LIMIT ?"
	args = append(args, filter.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock); err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		products = append(products, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}

	return products, nil
}

// GetProduct retrieves a product by id.
// Returns ErrNotFound if the product doesn't exist.
func (s *SQLiteStore) GetProduct(ctx context.Context, id int64) (*Product, error) {
	query := `SELECT id, name, description, price, stock FROM products WHERE id = ?`

	var p Product
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Stock,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying product: %w", err)
	}

	return &p, nil
}

// UpsertProduct inserts or replaces a product row. Used by catalog seeding.
func (s *SQLiteStore) UpsertProduct(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO products (id, name, description, price, stock)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			price = excluded.price,
			stock = excluded.stock
	`

	_, err := s.db.ExecContext(ctx, query, p.ID, p.Name, p.Description, p.Price, p.Stock)
	if err != nil {
		return fmt.Errorf("upserting product: %w", err)
	}

	s.logger.Debug("upserted product", "id", p.ID, "name", p.Name)
	return nil
}

// EnsureCart creates a cart for the conversation if one doesn't exist.
// Idempotent: the unique conversation_id key makes repeated calls no-ops.
func (s *SQLiteStore) EnsureCart(ctx context.Context, conversationID string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	query := `
		INSERT INTO carts (conversation_id, created_at, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(conversation_id) DO NOTHING
	`

	res, err := s.db.ExecContext(ctx, query, conversationID, now, now)
	if err != nil {
		return fmt.Errorf("ensuring cart: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.logger.Debug("created cart", "conversation_id", conversationID)
	}
	return nil
}

// GetCartByConversation retrieves the cart for a conversation.
// Returns ErrNotFound if no cart exists.
func (s *SQLiteStore) GetCartByConversation(ctx context.Context, conversationID string) (*Cart, error) {
	query := `
		SELECT id, conversation_id, created_at, updated_at
		FROM carts
		WHERE conversation_id = ?
	`

	var cart Cart
	var createdAtStr, updatedAtStr string

	err := s.db.QueryRowContext(ctx, query, conversationID).Scan(
		&cart.ID,
		&cart.ConversationID,
		&createdAtStr,
		&updatedAtStr,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying cart: %w", err)
	}

	cart.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	cart.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &cart, nil
}

// TouchCart bumps a cart's updated_at timestamp.
// Returns ErrNotFound if the cart doesn't exist.
func (s *SQLiteStore) TouchCart(ctx context.Context, cartID int64) error {
	query := `UPDATE carts SET updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339), cartID)
	if err != nil {
		return fmt.Errorf("touching cart: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// UpsertCartItem sets the quantity for a product in a cart as an absolute
// replacement, not an increment.
func (s *SQLiteStore) UpsertCartItem(ctx context.Context, cartID, productID, qty int64) error {
	query := `
		INSERT INTO cart_items (cart_id, product_id, qty)
		VALUES (?, ?, ?)
		ON CONFLICT(cart_id, product_id) DO UPDATE SET qty = excluded.qty
	`

	_, err := s.db.ExecContext(ctx, query, cartID, productID, qty)
	if err != nil {
		return fmt.Errorf("upserting cart item: %w", err)
	}

	s.logger.Debug("upserted cart item", "cart_id", cartID, "product_id", productID, "qty", qty)
	return nil
}

// DeleteCartItem removes a product's row from a cart. Deleting an absent row
// is not an error; absence already means quantity zero.
func (s *SQLiteStore) DeleteCartItem(ctx context.Context, cartID, productID int64) error {
	query := `DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?`

	_, err := s.db.ExecContext(ctx, query, cartID, productID)
	if err != nil {
		return fmt.Errorf("deleting cart item: %w", err)
	}

	s.logger.Debug("deleted cart item", "cart_id", cartID, "product_id", productID)
	return nil
}

// ListCartItems returns a cart's items joined with product name and price,
// ordered by product id ascending. Line totals are computed in the query.
func (s *SQLiteStore) ListCartItems(ctx context.Context, cartID int64) ([]*CartLine, error) {
	query := `
		SELECT ci.product_id, p.name, p.price, ci.qty, (p.price * ci.qty) AS line_total
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = ?
		ORDER BY ci.product_id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("querying cart items: %w", err)
	}
	defer rows.Close()

	var lines []*CartLine
	for rows.Next() {
		var line CartLine
		if err := rows.Scan(&line.ProductID, &line.Name, &line.Price, &line.Qty, &line.LineTotal); err != nil {
			return nil, fmt.Errorf("scanning cart item row: %w", err)
		}
		lines = append(lines, &line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cart item rows: %w", err)
	}

	return lines, nil
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)
