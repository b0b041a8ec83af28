// Package mutation runs the propose, confirm and reject flow for cart and
// wishlist changes. Nothing is mutated until the owner confirms.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"assistant-workers/internal/assistant/intent"
	"assistant-workers/internal/assistant/pending"
	"assistant-workers/internal/common/logger"
	"assistant-workers/internal/models"

	"github.com/google/uuid"
)

var (
	ErrDataStore    = errors.New("DATA_STORE_FAILED")
	ErrPendingStore = errors.New("PENDING_STORE_FAILED")
)

// Outcome names how a call ended; it is reported to the process alongside
// the user-facing message.
type Outcome string

const (
	OutcomeStaged            Outcome = "staged"
	OutcomeAlreadyWishlisted Outcome = "already_in_wishlist"
	OutcomeNotWishlisted     Outcome = "not_in_wishlist"
	OutcomeOutOfStock        Outcome = "out_of_stock"
	OutcomeNotInCart         Outcome = "not_in_cart"
	OutcomeProductNotFound   Outcome = "product_not_found"
	OutcomeMissingProduct    Outcome = "missing_product"
	OutcomeUnsupportedIntent Outcome = "unsupported_intent"
	OutcomeCommitted         Outcome = "committed"
	OutcomeExpired           Outcome = "expired"
	OutcomeNothingPending    Outcome = "nothing_pending"
	OutcomeCommitFailed      Outcome = "commit_failed"
	OutcomeDiscarded         Outcome = "discarded"
)

type ProposeResult struct {
	Accepted        bool            `json:"accepted"`
	Message         string          `json:"message"`
	RequiresConsent bool            `json:"requiresConsent"`
	Outcome         Outcome         `json:"outcome"`
	Action          *pending.Action `json:"action,omitempty"`
}

type CommitResult struct {
	Committed bool            `json:"committed"`
	Message   string          `json:"message"`
	Outcome   Outcome         `json:"outcome"`
	Action    *pending.Action `json:"action,omitempty"`
}

type DiscardResult struct {
	Discarded bool            `json:"discarded"`
	Message   string          `json:"message"`
	Outcome   Outcome         `json:"outcome"`
	Action    *pending.Action `json:"action,omitempty"`
}

// Recorder receives pending-action transitions.
type Recorder interface {
	RecordPendingTransition(ctx context.Context, transition string)
}

type noopRecorder struct{}

func (noopRecorder) RecordPendingTransition(context.Context, string) {}

type Orchestrator struct {
	data     DataStore
	store    pending.Store
	logger   logger.Logger
	recorder Recorder
	clock    pending.Clock
	newID    func() string
}

type Option func(*Orchestrator)

// WithClock sets the clock used to stamp proposals.
func WithClock(c pending.Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

func NewOrchestrator(data DataStore, store pending.Store, log logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		data:     data,
		store:    store,
		logger:   log,
		recorder: noopRecorder{},
		clock:    time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HasPendingAction reports whether the owner has a live proposal.
func (o *Orchestrator) HasPendingAction(ctx context.Context, owner string) (bool, error) {
	has, err := o.store.Has(ctx, owner)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPendingStore, err)
	}
	return has, nil
}

// Propose resolves the product, applies the domain guards and stages the
// action. Lookup failures are returned as errors; every business outcome is a
// result.
func (o *Orchestrator) Propose(ctx context.Context, id intent.ID, entities intent.Entities, owner string) (*ProposeResult, error) {
	if !intent.IsMutation(id) {
		return &ProposeResult{Message: msgUnsupported, Outcome: OutcomeUnsupportedIntent}, nil
	}
	if len(entities.Products) == 0 {
		return &ProposeResult{Message: msgMissingProduct, Outcome: OutcomeMissingProduct}, nil
	}

	term := entities.Products[0]
	product, err := o.data.FindProductByName(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("%w: find product: %v", ErrDataStore, err)
	}
	if product == nil {
		return &ProposeResult{Message: msgNotFound(term), Outcome: OutcomeProductNotFound}, nil
	}

	target := pending.Target{
		ProductID:   product.ID,
		ProductName: product.Name,
		Price:       product.Price,
	}

	switch id {
	case intent.AddToWishlist, intent.RemoveFromWishlist:
		entry, err := o.data.FindWishlistEntry(ctx, owner, product.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: find wishlist entry: %v", ErrDataStore, err)
		}
		if id == intent.AddToWishlist && entry != nil {
			return &ProposeResult{
				Accepted: true,
				Message:  msgAlreadyWishlisted(product.Name),
				Outcome:  OutcomeAlreadyWishlisted,
			}, nil
		}
		if id == intent.RemoveFromWishlist && entry == nil {
			return &ProposeResult{Message: msgNotWishlisted(product.Name), Outcome: OutcomeNotWishlisted}, nil
		}

	case intent.AddToCart:
		if !product.InStock() {
			return &ProposeResult{Message: msgOutOfStock(product.Name), Outcome: OutcomeOutOfStock}, nil
		}
		target.Quantity = 1
		if entities.Quantity > 0 {
			target.Quantity = entities.Quantity
		}
		if target.Quantity > product.Stock {
			return &ProposeResult{Message: msgInsufficientStock(product.Name, product.Stock), Outcome: OutcomeOutOfStock}, nil
		}
		item, err := o.findCartItem(ctx, owner, product.ID)
		if err != nil {
			return nil, err
		}
		if item != nil {
			target.CartItemID = item.ID
		}

	case intent.RemoveFromCart:
		item, err := o.findCartItem(ctx, owner, product.ID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return &ProposeResult{Message: msgNotInCart(product.Name), Outcome: OutcomeNotInCart}, nil
		}
		target.CartItemID = item.ID
		target.Quantity = item.Quantity
	}

	action := pending.Action{
		ID:        o.newID(),
		OwnerID:   owner,
		Type:      id,
		Target:    target,
		CreatedAt: o.clock(),
	}
	replaced, err := o.store.Propose(ctx, owner, action)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPendingStore, err)
	}

	if replaced {
		o.recorder.RecordPendingTransition(ctx, "overwritten")
	}
	o.recorder.RecordPendingTransition(ctx, "proposed")
	o.logger.Info("pending action staged", map[string]interface{}{
		"ownerId":   owner,
		"actionId":  action.ID,
		"type":      string(action.Type),
		"productId": product.ID,
		"replaced":  replaced,
	})

	return &ProposeResult{
		Accepted:        true,
		Message:         proposalMessage(action),
		RequiresConsent: true,
		Outcome:         OutcomeStaged,
		Action:          &action,
	}, nil
}

func (o *Orchestrator) findCartItem(ctx context.Context, owner, productID string) (*models.CartItem, error) {
	cart, err := o.data.FindCart(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("%w: find cart: %v", ErrDataStore, err)
	}
	if cart == nil {
		return nil, nil
	}
	item, err := o.data.FindCartItem(ctx, cart.ID, productID)
	if err != nil {
		return nil, fmt.Errorf("%w: find cart item: %v", ErrDataStore, err)
	}
	return item, nil
}

// Commit executes the owner's staged action at most once. The slot is emptied
// before the mutation runs, so a failure leaves nothing behind to retry.
func (o *Orchestrator) Commit(ctx context.Context, owner string) (*CommitResult, error) {
	l, err := o.store.Take(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPendingStore, err)
	}
	if l.Expired {
		o.recorder.RecordPendingTransition(ctx, "expired")
		o.logger.Info("pending action expired", map[string]interface{}{"ownerId": owner})
		return &CommitResult{Message: msgExpired, Outcome: OutcomeExpired}, nil
	}
	if l.Action == nil {
		return &CommitResult{Message: msgNothingPending, Outcome: OutcomeNothingPending}, nil
	}

	action := l.Action
	cartQty, err := o.execute(ctx, action)
	if err != nil {
		o.recorder.RecordPendingTransition(ctx, "commit_failed")
		o.logger.WithError(err).Error("pending action commit failed", map[string]interface{}{
			"ownerId":  owner,
			"actionId": action.ID,
			"type":     string(action.Type),
		})
		return &CommitResult{Message: msgCommitFailed, Outcome: OutcomeCommitFailed, Action: action}, nil
	}

	o.recorder.RecordPendingTransition(ctx, "committed")
	o.logger.Info("pending action committed", map[string]interface{}{
		"ownerId":  owner,
		"actionId": action.ID,
		"type":     string(action.Type),
	})
	return &CommitResult{
		Committed: true,
		Message:   committedMessage(*action, cartQty),
		Outcome:   OutcomeCommitted,
		Action:    action,
	}, nil
}

// execute applies the mutation; for add_to_cart it returns the resulting line quantity.
func (o *Orchestrator) execute(ctx context.Context, a *pending.Action) (int, error) {
	t := a.Target
	switch a.Type {
	case intent.AddToCart:
		qty := t.Quantity
		if qty < 1 {
			qty = 1
		}
		cart, err := o.data.GetOrCreateCart(ctx, a.OwnerID)
		if err != nil {
			return 0, err
		}
		item, err := o.data.FindCartItem(ctx, cart.ID, t.ProductID)
		if err != nil {
			return 0, err
		}
		if item != nil {
			return o.data.IncrementCartItem(ctx, item.ID, qty)
		}
		return qty, o.data.InsertCartItem(ctx, cart.ID, t.ProductID, qty)

	case intent.RemoveFromCart:
		return 0, o.data.DeleteCartItem(ctx, t.CartItemID)

	case intent.AddToWishlist:
		return 0, o.data.InsertWishlistEntry(ctx, a.OwnerID, t.ProductID)

	case intent.RemoveFromWishlist:
		return 0, o.data.DeleteWishlistEntry(ctx, a.OwnerID, t.ProductID)
	}
	return 0, fmt.Errorf("unsupported pending action type %q", a.Type)
}

// Discard empties the slot whatever it holds.
func (o *Orchestrator) Discard(ctx context.Context, owner string) (*DiscardResult, error) {
	action, err := o.store.Clear(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPendingStore, err)
	}
	if action == nil {
		return &DiscardResult{Message: msgNothingToAbort, Outcome: OutcomeNothingPending}, nil
	}

	o.recorder.RecordPendingTransition(ctx, "discarded")
	o.logger.Info("pending action discarded", map[string]interface{}{
		"ownerId":  owner,
		"actionId": action.ID,
		"type":     string(action.Type),
	})
	return &DiscardResult{
		Discarded: true,
		Message:   discardedMessage(*action),
		Outcome:   OutcomeDiscarded,
		Action:    action,
	}, nil
}
