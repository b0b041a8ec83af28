package pending

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the default process-local store. Its contents are lost on
// restart, which drops any outstanding consent.
type MemoryStore struct {
	ttl   time.Duration
	clock Clock

	mu    sync.Mutex
	slots map[string]Action
}

func NewMemoryStore(ttl time.Duration, clock Clock) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &MemoryStore{
		ttl:   ttl,
		clock: clock,
		slots: make(map[string]Action),
	}
}

func (s *MemoryStore) Has(ctx context.Context, owner string) (bool, error) {
	l, err := s.Get(ctx, owner)
	return l.Action != nil, err
}

func (s *MemoryStore) Get(_ context.Context, owner string) (Lookup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupLocked(owner, false), nil
}

func (s *MemoryStore) Take(_ context.Context, owner string) (Lookup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupLocked(owner, true), nil
}

func (s *MemoryStore) Propose(_ context.Context, owner string, a Action) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.lookupLocked(owner, false)
	a.OwnerID = owner
	s.slots[owner] = a
	return prev.Action != nil, nil
}

func (s *MemoryStore) Clear(_ context.Context, owner string) (*Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupLocked(owner, true).Action, nil
}

// Len counts occupied slots, stale ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

func (s *MemoryStore) lookupLocked(owner string, remove bool) Lookup {
	a, ok := s.slots[owner]
	if !ok {
		return Lookup{}
	}
	if a.StaleAt(s.clock(), s.ttl) {
		delete(s.slots, owner)
		return Lookup{Expired: true}
	}
	if remove {
		delete(s.slots, owner)
	}
	return Lookup{Action: &a}
}
