package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/chatflow/chatflow/internal/infra/adapters/storage"
)

type entry struct {
	hash      map[string]string
	list      [][]byte
	expiresAt time.Time // zero means no expiry
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Store is an in-process storage.Store with real TTL semantics (lazy expiry).
// It backs single-instance deployments without Redis and the test suite.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// live returns the entry for key, reaping it first if its TTL elapsed.
// Callers must hold mu.
func (s *Store) live(key string) *entry {
	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	if e.expired(time.Now()) {
		delete(s.entries, key)
		return nil
	}
	return e
}

func (s *Store) SetHash(_ context.Context, key string, fields map[string]string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := &entry{hash: maps.Clone(fields)}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	s.entries[key] = e

	return nil
}

func (s *Store) GetHash(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.live(key)
	if e == nil || e.hash == nil {
		return nil, storage.ErrKeyNotFound
	}

	return maps.Clone(e.hash), nil
}

func (s *Store) UpdateHash(_ context.Context, key string, fn func(fields map[string]string) (map[string]string, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.live(key)
	if e == nil || e.hash == nil {
		return storage.ErrKeyNotFound
	}

	updated, err := fn(maps.Clone(e.hash))
	if err != nil {
		return err
	}

	// Field updates never touch the key's remaining lifetime.
	e.hash = updated

	return nil
}

func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.live(key) != nil, nil
}

func (s *Store) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.live(key)
	if e == nil {
		return nil
	}
	if ttl <= 0 {
		delete(s.entries, key)
		return nil
	}
	e.expiresAt = time.Now().Add(ttl)

	return nil
}

func (s *Store) TTL(_ context.Context, key string) (time.Duration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.live(key)
	if e == nil {
		return 0, false, nil
	}
	if e.expiresAt.IsZero() {
		return -1, true, nil
	}

	return time.Until(e.expiresAt), true, nil
}

func (s *Store) AppendList(_ context.Context, key string, item []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.live(key)
	if e == nil {
		e = &entry{}
		s.entries[key] = e
	}
	e.list = append(e.list, append([]byte(nil), item...))

	return nil
}

func (s *Store) ReadList(_ context.Context, key string) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.live(key)
	if e == nil {
		return nil, nil
	}

	out := make([][]byte, len(e.list))
	for i, item := range e.list {
		out[i] = append([]byte(nil), item...)
	}

	return out, nil
}

func (s *Store) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.entries, key)
	}

	return nil
}
