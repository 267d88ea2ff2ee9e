package audit

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
	rows   []entity.AuditLog
}

// NewMemory constructs an empty in-memory audit store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Insert(ctx context.Context, entry *entity.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	entry.ID = m.nextID
	// Mirrors the database default.
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	m.rows = append(m.rows, *entry)
	return nil
}

func (m *Memory) Query(ctx context.Context, filter Filter, limit int) ([]entity.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []entity.AuditLog
	for _, row := range m.rows {
		if filter.ActorID != nil && row.ActorID != *filter.ActorID {
			continue
		}
		if filter.EntityType != "" && row.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && row.EntityID != filter.EntityID {
			continue
		}
		if filter.Action != "" && row.Action != filter.Action {
			continue
		}
		if filter.From != nil && row.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && row.CreatedAt.After(*filter.To) {
			continue
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
