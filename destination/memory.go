package destination

import (
	"context"
	"sync"

	"github.com/gaborage/logbricks/logger"
)

// DefaultMemoryCapacity is used when NewMemory receives a non-positive capacity.
const DefaultMemoryCapacity = 500

// Memory keeps the most recent entries in a fixed-size ring. It backs in-app log viewers
// and tests.
type Memory struct {
	name string

	mu    sync.Mutex
	ring  []logger.Entry
	start int
	count int
}

func NewMemory(name string, capacity int) *Memory {
	if name == "" {
		name = "memory"
	}
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{name: name, ring: make([]logger.Entry, capacity)}
}

func (m *Memory) Name() string { return m.name }

// Write stores e, evicting the oldest entry when the ring is full.
func (m *Memory) Write(_ context.Context, e logger.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := (m.start + m.count) % len(m.ring)
	m.ring[idx] = e
	if m.count < len(m.ring) {
		m.count++
	} else {
		m.start = (m.start + 1) % len(m.ring)
	}
	return nil
}

func (m *Memory) Flush(context.Context) error { return nil }

func (m *Memory) Close(context.Context) error { return nil }

// Entries returns the retained entries, oldest first.
func (m *Memory) Entries() []logger.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]logger.Entry, m.count)
	for i := range m.count {
		out[i] = m.ring[(m.start+i)%len(m.ring)]
	}
	return out
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// Cap returns the ring size.
func (m *Memory) Cap() int {
	return len(m.ring)
}

// Reset discards every retained entry.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.ring)
	m.start = 0
	m.count = 0
}
