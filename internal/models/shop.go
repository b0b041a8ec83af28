package models

import "time"

// Product is a sellable catalog item.
type Product struct {
	ID       string  `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	Price    float64 `json:"price" db:"price"`
	Stock    int     `json:"stock" db:"stock"`
	Category string  `json:"category,omitempty" db:"category"`
}

// InStock reports whether at least one unit can be sold.
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// Cart is the single open cart of a user.
type Cart struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"userId" db:"user_id"`
}

type CartItem struct {
	ID        string `json:"id" db:"id"`
	CartID    string `json:"cartId" db:"cart_id"`
	ProductID string `json:"productId" db:"product_id"`
	Quantity  int    `json:"quantity" db:"quantity"`
}

type WishlistEntry struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	ProductID string    `json:"productId" db:"product_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
