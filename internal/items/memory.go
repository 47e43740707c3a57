package items

import (
	"context"
	"sort"
	"sync"
	"time"

	"item-service/internal/store"

	"github.com/google/uuid"
)

// MemoryStore keeps items in process memory. It serves tests and the
// database-less dev mode.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]*Item
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]*Item)}
}

func (m *MemoryStore) List(_ context.Context) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *MemoryStore) Create(_ context.Context, name, description, price string) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	it := &Item{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Price:       price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.items[it.ID] = it
	cp := *it
	return &cp, nil
}

func (m *MemoryStore) Update(_ context.Context, id, name, description, price string) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	it.Name = name
	it.Description = description
	it.Price = price
	it.UpdatedAt = time.Now().UTC()
	cp := *it
	return &cp, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.items, id)
	return nil
}
