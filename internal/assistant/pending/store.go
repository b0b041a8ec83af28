// Package pending keeps at most one unconfirmed mutation per owner. Staleness
// is checked when a slot is read; nothing sweeps in the background.
package pending

import (
	"context"
	"time"

	"assistant-workers/internal/assistant/intent"
)

// DefaultTTL is how long a proposal stays confirmable.
const DefaultTTL = 5 * time.Minute

// Target is what the mutation needs to run without another lookup.
type Target struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	CartItemID  string  `json:"cartItemId,omitempty"`
}

// Action is a staged mutation. It is replaced, never edited.
type Action struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Type      intent.ID `json:"type"`
	Target    Target    `json:"target"`
	CreatedAt time.Time `json:"createdAt"`
}

// StaleAt reports whether the action is past ttl at now. An action exactly
// ttl old is still live.
func (a *Action) StaleAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(a.CreatedAt) > ttl
}

// Lookup is the outcome of reading a slot. Action is nil when the slot is
// empty; Expired is set when this read found and purged a stale action.
type Lookup struct {
	Action  *Action
	Expired bool
}

// Store is the single-slot-per-owner state machine.
type Store interface {
	Has(ctx context.Context, owner string) (bool, error)
	Get(ctx context.Context, owner string) (Lookup, error)
	// Propose stores a, silently replacing any existing action, and reports
	// whether a live action was replaced.
	Propose(ctx context.Context, owner string, a Action) (bool, error)
	// Clear empties the slot and returns the live action it held, if any.
	Clear(ctx context.Context, owner string) (*Action, error)
	// Take reads and empties the slot in one step, so an action can be
	// executed at most once.
	Take(ctx context.Context, owner string) (Lookup, error)
}

// Clock returns the current time; tests inject fixed clocks.
type Clock func() time.Time
