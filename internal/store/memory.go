package store

import (
	"context"
	"sort"
	"sync"

	"github.com/tartampluch/go-eventtracker/internal/engine"
)

// Memory is a Store kept in a map. Used in tests and for ephemeral runs.
type Memory struct {
	mu     sync.RWMutex
	events map[int64]engine.Event
	nextID int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{events: make(map[int64]engine.Event), nextID: 1}
}

func (m *Memory) List(ctx context.Context) ([]engine.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]engine.Event, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Get(ctx context.Context, id int64) (engine.Event, error) {
	if err := ctx.Err(); err != nil {
		return engine.Event{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	ev, ok := m.events[id]
	if !ok {
		return engine.Event{}, ErrNotFound
	}
	return ev, nil
}

func (m *Memory) Insert(ctx context.Context, ev engine.Event) (engine.Event, error) {
	if err := ctx.Err(); err != nil {
		return engine.Event{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ev.ID = m.nextID
	m.nextID++
	m.events[ev.ID] = ev
	return ev, nil
}

func (m *Memory) Update(ctx context.Context, ev engine.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[ev.ID]; !ok {
		return ErrNotFound
	}
	m.events[ev.ID] = ev
	return nil
}

func (m *Memory) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[id]; !ok {
		return ErrNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *Memory) DeleteAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = make(map[int64]engine.Event)
	return nil
}

func (m *Memory) Close() error { return nil }
