package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrStoreUnavailable = errors.New("PENDING_STORE_FAILED")

// RedisStore shares slots between worker replicas. createdAt stays the
// authority on staleness; the key expiry only reclaims abandoned slots.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	clock  Clock
}

func NewRedisStore(client redis.Cmdable, prefix string, ttl time.Duration, clock Clock) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, clock: clock}
}

func (s *RedisStore) key(owner string) string {
	return s.prefix + owner
}

// keyTTL outlives the staleness window so a late read can still say "expired".
func (s *RedisStore) keyTTL() time.Duration {
	return 2 * s.ttl
}

func (s *RedisStore) Has(ctx context.Context, owner string) (bool, error) {
	l, err := s.Get(ctx, owner)
	return l.Action != nil, err
}

func (s *RedisStore) Get(ctx context.Context, owner string) (Lookup, error) {
	raw, err := s.client.Get(ctx, s.key(owner)).Result()
	if errors.Is(err, redis.Nil) {
		return Lookup{}, nil
	}
	if err != nil {
		return Lookup{}, fmt.Errorf("%w: get: %v", ErrStoreUnavailable, err)
	}

	a, err := decodeAction(raw)
	if err != nil || a.StaleAt(s.clock(), s.ttl) {
		if delErr := s.client.Del(ctx, s.key(owner)).Err(); delErr != nil {
			return Lookup{}, fmt.Errorf("%w: purge: %v", ErrStoreUnavailable, delErr)
		}
		return Lookup{Expired: err == nil}, nil
	}
	return Lookup{Action: a}, nil
}

func (s *RedisStore) Take(ctx context.Context, owner string) (Lookup, error) {
	raw, err := s.client.GetDel(ctx, s.key(owner)).Result()
	if errors.Is(err, redis.Nil) {
		return Lookup{}, nil
	}
	if err != nil {
		return Lookup{}, fmt.Errorf("%w: getdel: %v", ErrStoreUnavailable, err)
	}

	a, err := decodeAction(raw)
	if err != nil {
		return Lookup{}, nil
	}
	if a.StaleAt(s.clock(), s.ttl) {
		return Lookup{Expired: true}, nil
	}
	return Lookup{Action: a}, nil
}

func (s *RedisStore) Propose(ctx context.Context, owner string, a Action) (bool, error) {
	a.OwnerID = owner
	payload, err := json.Marshal(a)
	if err != nil {
		return false, fmt.Errorf("encode pending action: %w", err)
	}

	var prev *redis.StringCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		prev = pipe.Get(ctx, s.key(owner))
		pipe.Set(ctx, s.key(owner), payload, s.keyTTL())
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("%w: set: %v", ErrStoreUnavailable, err)
	}

	raw, err := prev.Result()
	if err != nil {
		return false, nil
	}
	old, err := decodeAction(raw)
	if err != nil {
		return false, nil
	}
	return !old.StaleAt(s.clock(), s.ttl), nil
}

func (s *RedisStore) Clear(ctx context.Context, owner string) (*Action, error) {
	l, err := s.Take(ctx, owner)
	return l.Action, err
}

func decodeAction(raw string) (*Action, error) {
	var a Action
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, err
	}
	return &a, nil
}
