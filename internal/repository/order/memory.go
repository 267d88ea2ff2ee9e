package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/makerclub/printq/internal/entity"
)

// Memory is an in-process Store used by tests.
type Memory struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]entity.Order
}

// NewMemory constructs an empty in-memory order store.
func NewMemory() *Memory {
	return &Memory{rows: make(map[int64]entity.Order)}
}

func (m *Memory) Create(ctx context.Context, order *entity.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	order.ID = m.nextID
	m.rows[order.ID] = cloneOrder(*order)
	return nil
}

func (m *Memory) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	row = cloneOrder(row)
	return &row, nil
}

func (m *Memory) GetByOrderID(ctx context.Context, orderID string) (*entity.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, row := range m.rows {
		if row.OrderID == orderID {
			row = cloneOrder(row)
			return &row, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) Update(ctx context.Context, order *entity.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[order.ID]; !ok {
		return ErrNotFound
	}
	m.rows[order.ID] = cloneOrder(*order)
	return nil
}

func (m *Memory) UpdateFiles(ctx context.Context, id int64, files []entity.FileRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	row.Files = append([]entity.FileRef(nil), files...)
	row.UpdatedAt = time.Now().UTC()
	m.rows[id] = row
	return nil
}

func (m *Memory) List(ctx context.Context, filter Filter) ([]entity.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []entity.Order
	for _, row := range m.rows {
		if filter.UserID != nil && row.UserID != *filter.UserID {
			continue
		}
		if filter.ClubID != nil && (row.ClubID == nil || *row.ClubID != *filter.ClubID) {
			continue
		}
		if filter.Status != nil && row.Status != *filter.Status {
			continue
		}
		out = append(out, cloneOrder(row))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *Memory) ListSubmittedBefore(ctx context.Context, cutoff time.Time) ([]entity.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []entity.Order
	for _, row := range m.rows {
		if row.SubmittedAt.Before(cutoff) {
			out = append(out, cloneOrder(row))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func cloneOrder(o entity.Order) entity.Order {
	o.Files = append([]entity.FileRef(nil), o.Files...)
	return o
}
