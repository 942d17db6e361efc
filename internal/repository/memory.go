package repository

import (
	"context"
	"sync"
)

// MemoryRepository хранит значения клиентов в памяти процесса.
// Используется, когда адрес БД не задан, и в тестах.
type MemoryRepository struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewMemoryRepository создаёт пустое хранилище в памяти.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		data: make(map[string]map[string][]byte),
	}
}

// Close ничего не делает.
func (r *MemoryRepository) Close() error { return nil }

// Get возвращает копию сохранённого значения.
func (r *MemoryRepository) Get(ctx context.Context, clientID, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.data[clientID][key]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Put сохраняет копию значения.
func (r *MemoryRepository) Put(ctx context.Context, clientID, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	r.mu.Lock()
	defer r.mu.Unlock()

	slots, ok := r.data[clientID]
	if !ok {
		slots = make(map[string][]byte)
		r.data[clientID] = slots
	}
	slots[key] = stored
	return nil
}

// Delete удаляет значение.
func (r *MemoryRepository) Delete(ctx context.Context, clientID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slots, ok := r.data[clientID]
	if !ok {
		return nil
	}
	delete(slots, key)
	if len(slots) == 0 {
		delete(r.data, clientID)
	}
	return nil
}
