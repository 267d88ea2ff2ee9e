package user

import (
	"context"
	"sync"

	"github.com/makerclub/printq/internal/entity"
)

// Memory is an in-process Store used by tests.
type Memory struct {
	mu   sync.RWMutex
	rows map[int64]entity.User
}

// NewMemory constructs an in-memory user store seeded with the given users.
func NewMemory(users ...entity.User) *Memory {
	m := &Memory{rows: make(map[int64]entity.User)}
	for _, u := range users {
		m.rows[u.ID] = u
	}
	return m
}

func (m *Memory) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (m *Memory) IncrementFilesUsed(ctx context.Context, id int64, n int) error {
	if n <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	row.FilesUsed += n
	m.rows[id] = row
	return nil
}
