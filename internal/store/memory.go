package store

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// MemoryAdapter keeps documents in memory and is safe for concurrent use.
// Data is lost when the process exits.
type MemoryAdapter struct {
	mu   sync.RWMutex
	docs map[string][]byte
	revs map[string]int
}

// NewMemoryAdapter creates an empty in-memory adapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		docs: make(map[string][]byte),
		revs: make(map[string]int),
	}
}

// Load implements Adapter.
func (m *MemoryAdapter) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.docs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return append([]byte(nil), data...), nil
}

// Save implements Adapter.
func (m *MemoryAdapter) Save(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs[key] = append([]byte(nil), data...)
	m.revs[key]++
	return nil
}

// Revision implements Revisioner with a per-key write counter.
func (m *MemoryAdapter) Revision(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.docs[key]; !ok {
		return "", nil
	}
	return strconv.Itoa(m.revs[key]), nil
}

var (
	_ Adapter    = (*MemoryAdapter)(nil)
	_ Revisioner = (*MemoryAdapter)(nil)
)
