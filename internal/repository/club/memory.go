package club

import (
	"context"
	"sync"

	"github.com/makerclub/printq/internal/entity"
)

// Memory is an in-process Store used by tests.
type Memory struct {
	mu   sync.RWMutex
	rows map[int64]entity.Club
}

// NewMemory constructs an in-memory club store seeded with the given clubs.
func NewMemory(clubs ...entity.Club) *Memory {
	m := &Memory{rows: make(map[int64]entity.Club)}
	for _, c := range clubs {
		m.rows[c.ID] = c
	}
	return m
}

func (m *Memory) GetByID(ctx context.Context, id int64) (*entity.Club, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}
