package mutation

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"assistant-workers/internal/models"
)

var errDB = errors.New("connection reset")

// fakeShop is an in-memory DataStore with switchable failures.
type fakeShop struct {
	mu        sync.Mutex
	products  []models.Product
	carts     map[string]*models.Cart
	items     map[string]*models.CartItem
	wishlist  map[string]*models.WishlistEntry
	nextID    int
	failFind  bool
	failWrite bool
}

func newFakeShop(products ...models.Product) *fakeShop {
	return &fakeShop{
		products: products,
		carts:    map[string]*models.Cart{},
		items:    map[string]*models.CartItem{},
		wishlist: map[string]*models.WishlistEntry{},
	}
}

func (f *fakeShop) id(prefix string) string {
	f.nextID++
	return prefix + "-" + strconv.Itoa(f.nextID)
}

func (f *fakeShop) FindProductByName(_ context.Context, term string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFind {
		return nil, errDB
	}
	for i := range f.products {
		if strings.EqualFold(f.products[i].Name, term) {
			p := f.products[i]
			return &p, nil
		}
	}
	for i := range f.products {
		if strings.Contains(strings.ToLower(f.products[i].Name), strings.ToLower(term)) {
			p := f.products[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakeShop) FindCart(_ context.Context, owner string) (*models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFind {
		return nil, errDB
	}
	if c, ok := f.carts[owner]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeShop) GetOrCreateCart(_ context.Context, owner string) (*models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite {
		return nil, errDB
	}
	c, ok := f.carts[owner]
	if !ok {
		c = &models.Cart{ID: f.id("cart"), UserID: owner}
		f.carts[owner] = c
	}
	cp := *c
	return &cp, nil
}

func (f *fakeShop) FindCartItem(_ context.Context, cartID, productID string) (*models.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFind {
		return nil, errDB
	}
	for _, it := range f.items {
		if it.CartID == cartID && it.ProductID == productID {
			cp := *it
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeShop) InsertCartItem(_ context.Context, cartID, productID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite {
		return errDB
	}
	id := f.id("item")
	f.items[id] = &models.CartItem{ID: id, CartID: cartID, ProductID: productID, Quantity: quantity}
	return nil
}

func (f *fakeShop) IncrementCartItem(_ context.Context, itemID string, by int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite {
		return 0, errDB
	}
	it, ok := f.items[itemID]
	if !ok {
		return 0, errors.New("no such item")
	}
	it.Quantity += by
	return it.Quantity, nil
}

func (f *fakeShop) DeleteCartItem(_ context.Context, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite {
		return errDB
	}
	delete(f.items, itemID)
	return nil
}

func (f *fakeShop) FindWishlistEntry(_ context.Context, owner, productID string) (*models.WishlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFind {
		return nil, errDB
	}
	if e, ok := f.wishlist[owner+"/"+productID]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeShop) InsertWishlistEntry(_ context.Context, owner, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite {
		return errDB
	}
	f.wishlist[owner+"/"+productID] = &models.WishlistEntry{
		ID: f.id("wish"), UserID: owner, ProductID: productID, CreatedAt: time.Now(),
	}
	return nil
}

func (f *fakeShop) DeleteWishlistEntry(_ context.Context, owner, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite {
		return errDB
	}
	delete(f.wishlist, owner+"/"+productID)
	return nil
}

func (f *fakeShop) cartQuantity(owner, productID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[owner]
	if !ok {
		return 0
	}
	for _, it := range f.items {
		if it.CartID == c.ID && it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

func (f *fakeShop) wishlisted(owner, productID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.wishlist[owner+"/"+productID]
	return ok
}

type transitionRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *transitionRecorder) RecordPendingTransition(_ context.Context, transition string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, transition)
}

func (r *transitionRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
