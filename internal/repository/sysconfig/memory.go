package sysconfig

import (
	"context"
	"sort"
	"sync"

	"github.com/makerclub/printq/internal/entity"
)

// Memory is an in-process Store used by tests.
type Memory struct {
	mu   sync.RWMutex
	rows map[string]entity.SystemConfig
}

// NewMemory constructs an empty in-memory config store.
func NewMemory() *Memory {
	return &Memory{rows: make(map[string]entity.SystemConfig)}
}

func (m *Memory) Get(ctx context.Context, key string) (*entity.SystemConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (m *Memory) Upsert(ctx context.Context, row *entity.SystemConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[row.Key] = *row
	return nil
}

func (m *Memory) GetAll(ctx context.Context) ([]entity.SystemConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []entity.SystemConfig
	for _, row := range m.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
