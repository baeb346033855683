package cache

import (
	"sync"
	"time"
)

type memItem struct {
	data      []byte
	expiresAt time.Time
}

type memoryStore struct {
	mu    sync.RWMutex
	items map[string]memItem
}

func newMemoryStore() *memoryStore {
	return &memoryStore{items: make(map[string]memItem)}
}

func (m *memoryStore) get(key string) ([]byte, bool) {
	m.mu.RLock()
	it, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !it.expiresAt.IsZero() && time.Now().After(it.expiresAt) {
		m.del(key)
		return nil, false
	}
	return it.data, true
}

func (m *memoryStore) set(key string, data []byte, ttl time.Duration) {
	it := memItem{data: data}
	if ttl > 0 {
		it.expiresAt = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = it
	m.mu.Unlock()
}

func (m *memoryStore) del(key string) {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
}

func (m *memoryStore) flush() {
	m.mu.Lock()
	m.items = make(map[string]memItem)
	m.mu.Unlock()
}
