package credstore

import (
	"context"
	"sync"
)

// MemoryStore keeps credentials for the lifetime of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

func (m *MemoryStore) SetPair(_ context.Context, pair Pair) error {
	if !pair.Valid() {
		return ErrIncompletePair
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[KeyAccessToken] = pair.AccessToken
	m.values[KeyRefreshToken] = pair.RefreshToken
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

var _ PairStore = (*MemoryStore)(nil)
var _ StoreCloser = (*MemoryStore)(nil)
