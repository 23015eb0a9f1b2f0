// internal/state/mock.go
package state

import (
	"slices"
	"sync"
)

// Mock is an in-memory test double for Manager.
type Mock struct {
	mu      sync.Mutex
	entries map[string]Entry
	saves   int
	closed  bool
	late    int // saves after Close
}

// NewMock creates a new mock history store for testing.
func NewMock() *Mock {
	return &Mock{entries: make(map[string]Entry)}
}

func (m *Mock) SavePosition(e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.Source] = e
	m.saves++
	if m.closed {
		m.late++
	}
}

func (m *Mock) Get(source string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[source]
	if !ok {
		return nil, nil //nolint:nilnil // mirrors Manager
	}
	return &e, nil
}

func (m *Mock) Recent(limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entry) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Mock) Forget(source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, source)
	return nil
}

func (m *Mock) Flush() error { return nil }

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Test helpers

func (m *Mock) SetEntry(e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.Source] = e
}

func (m *Mock) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// SavesAfterClose counts positions saved after Close.
func (m *Mock) SavesAfterClose() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.late
}

func (m *Mock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
