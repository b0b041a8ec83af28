package mutation

import (
	"context"
	"testing"
	"time"

	"assistant-workers/internal/assistant/intent"
	"assistant-workers/internal/assistant/pending"
	"assistant-workers/internal/common/logger"
	"assistant-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "user-42"

var (
	blueShirt = models.Product{ID: "p-1", Name: "Blue Cotton Shirt", Price: 29.99, Stock: 10}
	redMug    = models.Product{ID: "p-2", Name: "Red Mug", Price: 8.5, Stock: 0}
	greenHat  = models.Product{ID: "p-3", Name: "Green Hat", Price: 15, Stock: 2}
)

type fixture struct {
	shop     *fakeShop
	store    *pending.MemoryStore
	clock    *fakeClock
	recorder *transitionRecorder
	orch     *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	f := &fixture{
		shop:     newFakeShop(blueShirt, redMug, greenHat),
		store:    pending.NewMemoryStore(pending.DefaultTTL, clock.Now),
		clock:    clock,
		recorder: &transitionRecorder{},
	}
	f.orch = NewOrchestrator(f.shop, f.store, logger.NewTestLogger(t),
		WithClock(clock.Now), WithRecorder(f.recorder))
	return f
}

func products(names ...string) intent.Entities {
	return intent.Entities{Products: names}
}

func TestPropose_AddToCartThenCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.orch.Propose(ctx, intent.AddToCart, products("blue cotton shirt"), owner)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.True(t, res.RequiresConsent)
	assert.Equal(t, OutcomeStaged, res.Outcome)
	assert.Contains(t, res.Message, "Blue Cotton Shirt")
	assert.Contains(t, res.Message, "yes")
	require.NotNil(t, res.Action)
	assert.Equal(t, 1, res.Action.Target.Quantity)
	assert.Equal(t, "p-1", res.Action.Target.ProductID)

	assert.Zero(t, f.shop.cartQuantity(owner, "p-1"), "nothing is written before consent")

	has, err := f.orch.HasPendingAction(ctx, owner)
	require.NoError(t, err)
	assert.True(t, has)

	commit, err := f.orch.Commit(ctx, owner)
	require.NoError(t, err)
	assert.True(t, commit.Committed)
	assert.Equal(t, OutcomeCommitted, commit.Outcome)
	assert.Contains(t, commit.Message, "You now have 1 in your cart")
	assert.Equal(t, 1, f.shop.cartQuantity(owner, "p-1"))

	has, err = f.orch.HasPendingAction(ctx, owner)
	require.NoError(t, err)
	assert.False(t, has)

	assert.Equal(t, []string{"proposed", "committed"}, f.recorder.all())
}

func TestCommit_IncrementsExistingLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.orch.Propose(ctx, intent.AddToCart, intent.Entities{Products: []string{"Blue Cotton Shirt"}, Quantity: 2}, owner)
		require.NoError(t, err)
		res, err := f.orch.Commit(ctx, owner)
		require.NoError(t, err)
		require.True(t, res.Committed)
	}
	assert.Equal(t, 4, f.shop.cartQuantity(owner, "p-1"))
}

func TestCommit_IsAtMostOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orch.Propose(ctx, intent.AddToCart, products("Blue Cotton Shirt"), owner)
	require.NoError(t, err)

	first, err := f.orch.Commit(ctx, owner)
	require.NoError(t, err)
	assert.True(t, first.Committed)

	second, err := f.orch.Commit(ctx, owner)
	require.NoError(t, err)
	assert.False(t, second.Committed)
	assert.Equal(t, OutcomeNothingPending, second.Outcome)
	assert.Equal(t, 1, f.shop.cartQuantity(owner, "p-1"))
}

func TestPropose_OutOfStockStagesNothing(t *testing.T) {
	f := newFixture(t)

	res, err := f.orch.Propose(context.Background(), intent.AddToCart, products("Red Mug"), owner)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.False(t, res.RequiresConsent)
	assert.Equal(t, OutcomeOutOfStock, res.Outcome)
	assert.Contains(t, res.Message, "out of stock")
	assert.Zero(t, f.store.Len())
}

func TestPropose_QuantityAboveStock(t *testing.T) {
	f := newFixture(t)

	res, err := f.orch.Propose(context.Background(), intent.AddToCart,
		intent.Entities{Products: []string{"Green Hat"}, Quantity: 5}, owner)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Contains(t, res.Message, "only 2")
	assert.Zero(t, f.store.Len())
}

func TestPropose_AddToWishlistIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orch.Propose(ctx, intent.AddToWishlist, products("Green Hat"), owner)
	require.NoError(t, err)
	res, err := f.orch.Commit(ctx, owner)
	require.NoError(t, err)
	require.True(t, res.Committed)
	assert.True(t, f.shop.wishlisted(owner, "p-3"))

	again, err := f.orch.Propose(ctx, intent.AddToWishlist, products("Green Hat"), owner)
	require.NoError(t, err)
	assert.True(t, again.Accepted)
	assert.False(t, again.RequiresConsent)
	assert.Equal(t, OutcomeAlreadyWishlisted, again.Outcome)
	assert.Contains(t, again.Message, "already in your wishlist")
	assert.Zero(t, f.store.Len())
}

func TestPropose_RemoveFromWishlistNeverAdded(t *testing.T) {
	f := newFixture(t)

	res, err := f.orch.Propose(context.Background(), intent.RemoveFromWishlist, products("Blue Cotton Shirt"), owner)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, OutcomeNotWishlisted, res.Outcome)
	assert.Zero(t, f.store.Len())
}

func TestPropose_RemoveFromCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.orch.Propose(ctx, intent.RemoveFromCart, products("Blue Cotton Shirt"), owner)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotInCart, res.Outcome)

	_, err = f.orch.Propose(ctx, intent.AddToCart, products("Blue Cotton Shirt"), owner)
	require.NoError(t, err)
	_, err = f.orch.Commit(ctx, owner)
	require.NoError(t, err)

	res, err = f.orch.Propose(ctx, intent.RemoveFromCart, products("Blue Cotton Shirt"), owner)
	require.NoError(t, err)
	require.True(t, res.RequiresConsent)
	assert.NotEmpty(t, res.Action.Target.CartItemID)

	commit, err := f.orch.Commit(ctx, owner)
	require.NoError(t, err)
	assert.True(t, commit.Committed)
	assert.Zero(t, f.shop.cartQuantity(owner, "p-1"))
}

func TestPropose_GuidanceAndUnknownProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.orch.Propose(ctx, intent.AddToCart, intent.Entities{}, owner)
	require.NoError(t, err)
	assert.Equal(t, OutcomeMissingProduct, res.Outcome)

	res, err = f.orch.Propose(ctx, intent.AddToCart, products("Flux Capacitor"), owner)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProductNotFound, res.Outcome)
	assert.Contains(t, res.Message, "Flux Capacitor")

	res, err = f.orch.Propose(ctx, intent.OrderStatus, products("Blue Cotton Shirt"), owner)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnsupportedIntent, res.Outcome)

	assert.Zero(t, f.store.Len())
}

func TestPropose_ReplacesEarlierProposal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orch.Propose(ctx, intent.AddToCart, products("Blue Cotton Shirt"), owner)
	require.NoError(t, err)
	_, err = f.orch.Propose(ctx, intent.AddToWishlist, products("Green Hat"), owner)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.Len())

	res, err := f.orch.Commit(ctx, owner)
	require.NoError(t, err)
	require.True(t, res.Committed)
	assert.Equal(t, intent.AddToWishlist, res.Action.Type)
	assert.Zero(t, f.shop.cartQuantity(owner, "p-1"))
	assert.True(t, f.shop.wishlisted(owner, "p-3"))

	assert.Equal(t, []string{"proposed", "overwritten", "proposed", "committed"}, f.recorder.all())
}

func TestCommit_Staleness(t *testing.T) {
	t.Run("just inside the window commits", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		_, err := f.orch.Propose(ctx, intent.AddToCart, products("Blue Cotton Shirt"), owner)
		require.NoError(t, err)
		f.clock.Advance(pending.DefaultTTL - time.Second)

		res, err := f.orch.Commit(ctx, owner)
		require.NoError(t, err)
		assert.True(t, res.Committed)
	})

	t.Run("past the window expires", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		_, err := f.orch.Propose(ctx, intent.AddToCart, products("Blue Cotton Shirt"), owner)
		require.NoError(t, err)
		f.clock.Advance(pending.DefaultTTL + time.Second)

		res, err := f.orch.Commit(ctx, owner)
		require.NoError(t, err)
		assert.False(t, res.Committed)
		assert.Equal(t, OutcomeExpired, res.Outcome)
		assert.Contains(t, res.Message, "expired")
		assert.Zero(t, f.shop.cartQuantity(owner, "p-1"))

		again, err := f.orch.Commit(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNothingPending, again.Outcome)
	})
}

func TestCommit_FailureClearsSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orch.Propose(ctx, intent.AddToCart, products("Blue Cotton Shirt"), owner)
	require.NoError(t, err)
	f.shop.failWrite = true

	res, err := f.orch.Commit(ctx, owner)
	require.NoError(t, err)
	assert.False(t, res.Committed)
	assert.Equal(t, OutcomeCommitFailed, res.Outcome)
	assert.Zero(t, f.store.Len())
	assert.Contains(t, f.recorder.all(), "commit_failed")
}

func TestPropose_LookupFailureIsAnError(t *testing.T) {
	f := newFixture(t)
	f.shop.failFind = true

	res, err := f.orch.Propose(context.Background(), intent.AddToCart, products("Blue Cotton Shirt"), owner)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrDataStore)
	assert.Zero(t, f.store.Len())
}

func TestDiscard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.orch.Discard(ctx, owner)
	require.NoError(t, err)
	assert.False(t, res.Discarded)
	assert.Equal(t, OutcomeNothingPending, res.Outcome)

	_, err = f.orch.Propose(ctx, intent.AddToWishlist, products("Green Hat"), owner)
	require.NoError(t, err)

	res, err = f.orch.Discard(ctx, owner)
	require.NoError(t, err)
	assert.True(t, res.Discarded)
	assert.Contains(t, res.Message, "Green Hat")
	assert.False(t, f.shop.wishlisted(owner, "p-3"))

	commit, err := f.orch.Commit(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNothingPending, commit.Outcome)
}

func TestOwnersAreIsolated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orch.Propose(ctx, intent.AddToCart, products("Blue Cotton Shirt"), "alice")
	require.NoError(t, err)

	res, err := f.orch.Commit(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNothingPending, res.Outcome)

	has, err := f.orch.HasPendingAction(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, has)
}
