package cache

import (
	"context"
	"sync"
)

// Memory is an in-process store. Its lifetime is whatever the caller gives it.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMemory() *Memory { return &Memory{entries: make(map[string]string)} }

func (m *Memory) Get(_ context.Context, fingerprint string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	text, ok := m.entries[fingerprint]
	return text, ok, nil
}

func (m *Memory) Put(_ context.Context, fingerprint, text string) error {
	m.mu.Lock()
	m.entries[fingerprint] = text
	m.mu.Unlock()
	return nil
}

// Len reports the number of entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
