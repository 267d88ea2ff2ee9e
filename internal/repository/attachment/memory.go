package attachment

import (
	"context"
	"sort"
	"sync"

	"github.com/makerclub/printq/internal/entity"
)

// Memory is an in-process Store used by tests.
type Memory struct {
	mu   sync.RWMutex
	rows map[string]entity.FileMetadata
}

// NewMemory constructs an empty in-memory attachment store.
func NewMemory() *Memory {
	return &Memory{rows: make(map[string]entity.FileMetadata)}
}

func (m *Memory) Create(ctx context.Context, file *entity.FileMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[file.ID] = *file
	return nil
}

func (m *Memory) GetByID(ctx context.Context, id string) (*entity.FileMetadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (m *Memory) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return false, nil
	}
	delete(m.rows, id)
	return true, nil
}

func (m *Memory) AssignOrder(ctx context.Context, id string, orderID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	row.OrderID = &orderID
	m.rows[id] = row
	return nil
}

func (m *Memory) ListByOrder(ctx context.Context, orderID int64) ([]entity.FileMetadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []entity.FileMetadata
	for _, row := range m.rows {
		if row.OrderID != nil && *row.OrderID == orderID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
