package eventlog

import (
	"context"
	"sync"

	"github.com/iov-one/swapkeep/x/swap"
)

// Memory keeps a bounded number of the most recent events.
type Memory struct {
	mu     sync.RWMutex
	events []swap.Event
	limit  int
}

var _ swap.EventListener = (*Memory)(nil)

// NewMemory returns a journal keeping at most limit events.
func NewMemory(limit int) *Memory {
	if limit <= 0 {
		limit = 1
	}
	return &Memory{limit: limit}
}

// OnEvent appends the event, dropping the oldest one when full.
func (m *Memory) OnEvent(ctx context.Context, e swap.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == m.limit {
		copy(m.events, m.events[1:])
		m.events = m.events[:m.limit-1]
	}
	m.events = append(m.events, e)
}

// Recent returns up to n newest events, oldest first.
func (m *Memory) Recent(ctx context.Context, n int) ([]swap.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n <= 0 || n > len(m.events) {
		n = len(m.events)
	}
	res := make([]swap.Event, n)
	copy(res, m.events[len(m.events)-n:])
	return res, nil
}
