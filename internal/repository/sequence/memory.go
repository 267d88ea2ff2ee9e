package sequence

import (
	"context"
	"errors"
	"sync"
)

// Memory is an in-process Store used by tests.
type Memory struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewMemory constructs an empty in-memory sequence store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]int64)}
}

func (m *Memory) Next(ctx context.Context, scope string) (int64, error) {
	if scope == "" {
		return 0, errors.New("empty sequence scope")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[scope]++
	return m.values[scope], nil
}
