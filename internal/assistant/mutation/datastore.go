package mutation

import (
	"context"

	"assistant-workers/internal/models"
)

// DataStore is the shop data the orchestrator reads and mutates. Finders
// return (nil, nil) when nothing matches.
type DataStore interface {
	// FindProductByName resolves a user-typed name: exact match first, then
	// the best substring match, case-insensitive.
	FindProductByName(ctx context.Context, term string) (*models.Product, error)

	FindCart(ctx context.Context, owner string) (*models.Cart, error)
	GetOrCreateCart(ctx context.Context, owner string) (*models.Cart, error)
	FindCartItem(ctx context.Context, cartID, productID string) (*models.CartItem, error)
	InsertCartItem(ctx context.Context, cartID, productID string, quantity int) error
	// IncrementCartItem adds by to the line and returns the new quantity.
	IncrementCartItem(ctx context.Context, itemID string, by int) (int, error)
	DeleteCartItem(ctx context.Context, itemID string) error

	FindWishlistEntry(ctx context.Context, owner, productID string) (*models.WishlistEntry, error)
	InsertWishlistEntry(ctx context.Context, owner, productID string) error
	DeleteWishlistEntry(ctx context.Context, owner, productID string) error
}
