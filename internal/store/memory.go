package store

import (
	"context"
	"sync"
)

// MemoryStore keeps values in process memory. It is the default medium in
// development and the fake used by tests. A non-zero quota bounds the size
// of any single value, mirroring a browser local-storage limit.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	quota  int
	closed bool
}

// NewMemoryStore creates an empty MemoryStore. quota <= 0 disables the limit.
func NewMemoryStore(quota int) *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte), quota: quota}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	v, ok := s.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	if s.quota > 0 && len(value) > s.quota {
		return ErrValueTooLarge
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = v
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
