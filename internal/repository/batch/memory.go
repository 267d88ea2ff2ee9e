package batch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/makerclub/printq/internal/entity"
	orderrepo "github.com/makerclub/printq/internal/repository/order"
)

// Memory is an in-process Store used by tests. It links member orders
// through the in-memory order store to mirror the transactional behavior.
type Memory struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]entity.Batch
	orders *orderrepo.Memory
}

// NewMemory constructs an in-memory batch store over the given order store.
func NewMemory(orders *orderrepo.Memory) *Memory {
	return &Memory{rows: make(map[int64]entity.Batch), orders: orders}
}

func (m *Memory) CreateWithOrders(ctx context.Context, batch *entity.Batch, orderIDs []int64) error {
	// Validate every member before touching anything, so a missing order
	// leaves no partial linkage.
	members := make([]*entity.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		o, err := m.orders.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("%w: id %d", ErrOrderMissing, id)
		}
		members = append(members, o)
	}

	m.mu.Lock()
	m.nextID++
	batch.ID = m.nextID
	m.rows[batch.ID] = *batch
	m.mu.Unlock()

	for _, o := range members {
		batchID := batch.ID
		o.BatchID = &batchID
		o.UpdatedAt = time.Now().UTC()
		if err := m.orders.Update(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) GetByID(ctx context.Context, id int64) (*entity.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (m *Memory) Update(ctx context.Context, batch *entity.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[batch.ID]; !ok {
		return ErrNotFound
	}
	m.rows[batch.ID] = *batch
	return nil
}

func (m *Memory) List(ctx context.Context, limit int) ([]entity.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []entity.Batch
	for _, row := range m.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
