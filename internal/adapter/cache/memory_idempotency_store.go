package cache

import (
	"context"
	"sync"
	"time"

	"github.com/aq2208/gorder-storefront/internal/usecase"
)

// MemoryIdempotencyStore is used when no Redis is configured.
type MemoryIdempotencyStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]memEntry
}

type memEntry struct {
	value   string
	expires time.Time
}

func NewMemoryIdempotencyStore(ttl time.Duration) *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{ttl: ttl, now: time.Now, entries: map[string]memEntry{}}
}

func (s *MemoryIdempotencyStore) get(k string) (memEntry, bool) {
	e, ok := s.entries[k]
	if ok && s.ttl > 0 && s.now().After(e.expires) {
		delete(s.entries, k)
		return memEntry{}, false
	}
	return e, ok
}

func (s *MemoryIdempotencyStore) set(k, v string) {
	s.entries[k] = memEntry{value: v, expires: s.now().Add(s.ttl)}
}

func (s *MemoryIdempotencyStore) TryLock(_ context.Context, scope, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.get(lockKey(scope, key)); ok {
		return false, nil
	}
	s.set(lockKey(scope, key), "1")
	return true, nil
}

func (s *MemoryIdempotencyStore) Remember(_ context.Context, scope, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(mapKey(scope, key), value)
	return nil
}

func (s *MemoryIdempotencyStore) Recall(_ context.Context, scope, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.get(mapKey(scope, key))
	return e.value, ok, nil
}

func (s *MemoryIdempotencyStore) Forget(_ context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, lockKey(scope, key))
	delete(s.entries, mapKey(scope, key))
	return nil
}

var _ usecase.IdempotencyStore = (*MemoryIdempotencyStore)(nil)
