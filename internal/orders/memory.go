package orders

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a process-local Store for tests and the demo profile.
type MemoryStore struct {
	mu        sync.Mutex
	bySession map[string]Order
	byNumber  map[string]string // number -> session id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bySession: map[string]Order{}, byNumber: map[string]string{}}
}

func (m *MemoryStore) CreateOrder(ctx context.Context, o Order) (Order, bool, error) {
	if err := ctx.Err(); err != nil {
		return Order{}, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.bySession[o.SessionID]; ok {
		return existing, false, nil
	}
	if _, taken := m.byNumber[o.Number]; taken {
		return Order{}, false, ErrConflict
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.Items = append([]LineItem(nil), o.Items...)
	m.bySession[o.SessionID] = o
	m.byNumber[o.Number] = o.SessionID
	return o, true, nil
}

func (m *MemoryStore) GetBySession(ctx context.Context, sessionID string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.bySession[sessionID]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (m *MemoryStore) GetByNumber(ctx context.Context, number string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sid, ok := m.byNumber[number]
	if !ok {
		return Order{}, ErrNotFound
	}
	return m.bySession[sid], nil
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bySession)
}
