// Package shop is the PostgreSQL-backed data store for products, carts and
// wishlists, with an optional Elasticsearch tier for fuzzy product lookup.
package shop

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"assistant-workers/internal/models"

	"github.com/google/uuid"
)

const productColumns = `id, name, price, stock, COALESCE(category, '')`

// ErrNotFound is returned by writes whose target row has disappeared.
var ErrNotFound = errors.New("row not found")

// Repository implements the shop queries on a lib/pq pool.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// FindProductByName resolves a name with the two database tiers only.
func (r *Repository) FindProductByName(ctx context.Context, term string) (*models.Product, error) {
	p, err := r.FindProductExact(ctx, term)
	if err != nil || p != nil {
		return p, err
	}
	return r.FindProductSubstring(ctx, term)
}

// FindProductExact matches the whole name, ignoring case.
func (r *Repository) FindProductExact(ctx context.Context, term string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE LOWER(name) = LOWER($1) ORDER BY name LIMIT 1`
	return r.scanProduct(r.db.QueryRowContext(ctx, query, strings.TrimSpace(term)))
}

// FindProductSubstring returns the shortest name containing term, ties broken
// alphabetically.
func (r *Repository) FindProductSubstring(ctx context.Context, term string) (*models.Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	query := `SELECT ` + productColumns + ` FROM products WHERE name ILIKE $1 ORDER BY LENGTH(name), name LIMIT 1`
	return r.scanProduct(r.db.QueryRowContext(ctx, query, "%"+escapeLike(term)+"%"))
}

func (r *Repository) FindProductByID(ctx context.Context, id string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return r.scanProduct(r.db.QueryRowContext(ctx, query, id))
}

func (r *Repository) scanProduct(row *sql.Row) (*models.Product, error) {
	var p models.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Category); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: scan product: %w", err)
	}
	return &p, nil
}

func (r *Repository) FindCart(ctx context.Context, owner string) (*models.Cart, error) {
	var c models.Cart
	err := r.db.QueryRowContext(ctx, `SELECT id, user_id FROM carts WHERE user_id = $1 LIMIT 1`, owner).
		Scan(&c.ID, &c.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find cart: %w", err)
	}
	return &c, nil
}

// GetOrCreateCart returns the owner's cart, creating an empty one if needed.
func (r *Repository) GetOrCreateCart(ctx context.Context, owner string) (*models.Cart, error) {
	c, err := r.FindCart(ctx, owner)
	if err != nil || c != nil {
		return c, err
	}

	c = &models.Cart{ID: uuid.NewString(), UserID: owner}
	if _, err := r.db.ExecContext(ctx, `INSERT INTO carts (id, user_id) VALUES ($1, $2)`, c.ID, c.UserID); err != nil {
		return nil, fmt.Errorf("postgres: create cart: %w", err)
	}
	return c, nil
}

func (r *Repository) FindCartItem(ctx context.Context, cartID, productID string) (*models.CartItem, error) {
	var it models.CartItem
	err := r.db.QueryRowContext(ctx,
		`SELECT id, cart_id, product_id, quantity FROM cart_items WHERE cart_id = $1 AND product_id = $2 LIMIT 1`,
		cartID, productID,
	).Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find cart item: %w", err)
	}
	return &it, nil
}

func (r *Repository) InsertCartItem(ctx context.Context, cartID, productID string, quantity int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cart_items (id, cart_id, product_id, quantity) VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), cartID, productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert cart item: %w", err)
	}
	return nil
}

func (r *Repository) IncrementCartItem(ctx context.Context, itemID string, by int) (int, error) {
	var qty int
	err := r.db.QueryRowContext(ctx,
		`UPDATE cart_items SET quantity = quantity + $2 WHERE id = $1 RETURNING quantity`,
		itemID, by,
	).Scan(&qty)
	if err != nil {
		return 0, fmt.Errorf("postgres: increment cart item: %w", err)
	}
	return qty, nil
}

func (r *Repository) DeleteCartItem(ctx context.Context, itemID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("postgres: delete cart item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("postgres: delete cart item: %w", ErrNotFound)
	}
	return nil
}

func (r *Repository) FindWishlistEntry(ctx context.Context, owner, productID string) (*models.WishlistEntry, error) {
	var e models.WishlistEntry
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, product_id, created_at FROM wishlist_items WHERE user_id = $1 AND product_id = $2 LIMIT 1`,
		owner, productID,
	).Scan(&e.ID, &e.UserID, &e.ProductID, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find wishlist entry: %w", err)
	}
	return &e, nil
}

// InsertWishlistEntry is idempotent on (user_id, product_id).
func (r *Repository) InsertWishlistEntry(ctx context.Context, owner, productID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO wishlist_items (id, user_id, product_id, created_at) VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (user_id, product_id) DO NOTHING`,
		uuid.NewString(), owner, productID,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert wishlist entry: %w", err)
	}
	return nil
}

func (r *Repository) DeleteWishlistEntry(ctx context.Context, owner, productID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`, owner, productID)
	if err != nil {
		return fmt.Errorf("postgres: delete wishlist entry: %w", err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
