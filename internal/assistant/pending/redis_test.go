package pending

import (
	"context"
	"errors"
	"testing"
	"time"

	"assistant-workers/internal/assistant/intent"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrefix = "assistant:pending:"

func newMiniredisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis, *fakeClock) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := newFakeClock()
	return NewRedisStore(client, testPrefix, DefaultTTL, clock.Now), mr, clock
}

func TestRedisStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s, mr, clock := newMiniredisStore(t)

	has, err := s.Has(ctx, "U1")
	require.NoError(t, err)
	assert.False(t, has)

	replaced, err := s.Propose(ctx, "U1", action("a1", intent.AddToCart, "shirt", clock.Now()))
	require.NoError(t, err)
	assert.False(t, replaced)
	assert.True(t, mr.Exists(testPrefix+"U1"))
	assert.Equal(t, 2*DefaultTTL, mr.TTL(testPrefix+"U1"))

	replaced, err = s.Propose(ctx, "U1", action("a2", intent.AddToWishlist, "mug", clock.Now()))
	require.NoError(t, err)
	assert.True(t, replaced)

	l, err := s.Get(ctx, "U1")
	require.NoError(t, err)
	require.NotNil(t, l.Action)
	assert.Equal(t, "a2", l.Action.ID)
	assert.Equal(t, "U1", l.Action.OwnerID)
	assert.Equal(t, "mug", l.Action.Target.ProductName)
	assert.True(t, clock.Now().Equal(l.Action.CreatedAt))

	cleared, err := s.Clear(ctx, "U1")
	require.NoError(t, err)
	require.NotNil(t, cleared)
	assert.Equal(t, "a2", cleared.ID)
	assert.False(t, mr.Exists(testPrefix+"U1"))
}

func TestRedisStore_StalenessUsesCreatedAt(t *testing.T) {
	ctx := context.Background()
	s, mr, clock := newMiniredisStore(t)

	_, err := s.Propose(ctx, "U1", action("a1", intent.AddToCart, "shirt", clock.Now()))
	require.NoError(t, err)

	clock.Advance(DefaultTTL - time.Second)
	l, err := s.Get(ctx, "U1")
	require.NoError(t, err)
	require.NotNil(t, l.Action)

	clock.Advance(2 * time.Second)
	l, err = s.Get(ctx, "U1")
	require.NoError(t, err)
	assert.Nil(t, l.Action)
	assert.True(t, l.Expired)
	assert.False(t, mr.Exists(testPrefix+"U1"), "stale slot purged on read")
}

func TestRedisStore_TakeExpired(t *testing.T) {
	ctx := context.Background()
	s, mr, clock := newMiniredisStore(t)

	_, _ = s.Propose(ctx, "U1", action("a1", intent.RemoveFromWishlist, "mug", clock.Now()))
	clock.Advance(DefaultTTL + time.Second)

	l, err := s.Take(ctx, "U1")
	require.NoError(t, err)
	assert.Nil(t, l.Action)
	assert.True(t, l.Expired)
	assert.False(t, mr.Exists(testPrefix+"U1"))
}

func TestRedisStore_CorruptPayloadIsAbsent(t *testing.T) {
	ctx := context.Background()
	s, mr, _ := newMiniredisStore(t)

	require.NoError(t, mr.Set(testPrefix+"U1", "{not json"))

	l, err := s.Get(ctx, "U1")
	require.NoError(t, err)
	assert.Nil(t, l.Action)
	assert.False(t, l.Expired)
	assert.False(t, mr.Exists(testPrefix+"U1"))
}

func TestRedisStore_Errors(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db, testPrefix, DefaultTTL, nil)

	mock.ExpectGet(testPrefix + "U1").SetErr(errors.New("connection refused"))
	_, err := s.Get(ctx, "U1")
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	mock.ExpectGetDel(testPrefix + "U1").SetErr(errors.New("connection refused"))
	_, err = s.Take(ctx, "U1")
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	mock.ExpectGet(testPrefix + "U2").RedisNil()
	has, err := s.Has(ctx, "U2")
	require.NoError(t, err)
	assert.False(t, has)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_ProposeWhenDown(t *testing.T) {
	ctx := context.Background()
	s, mr, clock := newMiniredisStore(t)
	mr.Close()

	_, err := s.Propose(ctx, "U1", action("a1", intent.AddToCart, "shirt", clock.Now()))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
