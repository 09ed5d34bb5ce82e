package registry

import (
	"errors"
	"sync"

	"github.com/zzjoey/downxv/server/internal/downloads"
)

var ErrNotFound = errors.New("no task found for the given key")

// Store is an in-memory thread-safe registry of download tasks. Entries
// keep stable insertion order and are removed only by explicit dismiss
// or bulk clear, never evicted behind the caller's back.
type Store struct {
	table map[string]*downloads.Task
	order []string
	mu    sync.RWMutex
}

func NewStore() *Store {
	return &Store{
		table: make(map[string]*downloads.Task),
	}
}

// Get a task pointer given its id
func (m *Store) Get(id string) (*downloads.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.table[id]
	if !ok {
		return nil, ErrNotFound
	}

	return entry, nil
}

// Set appends a task and returns its id
func (m *Store) Set(t *downloads.Task) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := t.Id()
	if _, ok := m.table[id]; !ok {
		m.order = append(m.order, id)
	}
	m.table[id] = t

	return id
}

// Delete removes a task from the registry, given its id
func (m *Store) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.table[id]; !ok {
		return
	}

	delete(m.table, id)
	for i, key := range m.order {
		if key == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Keys returns all registered ids in insertion order
func (m *Store) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, len(m.order))
	copy(keys, m.order)

	return keys
}

// Tasks returns all registered tasks in insertion order
func (m *Store) Tasks() []*downloads.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tasks := make([]*downloads.Task, 0, len(m.order))
	for _, id := range m.order {
		tasks = append(tasks, m.table[id])
	}

	return tasks
}

// All returns a snapshot of every registered task in insertion order
func (m *Store) All() []downloads.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshots := make([]downloads.Snapshot, 0, len(m.order))
	for _, id := range m.order {
		snapshots = append(snapshots, m.table[id].Status())
	}

	return snapshots
}

// ActiveCount is the number of tasks not yet in a terminal state.
func (m *Store) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, t := range m.table {
		if !t.IsTerminal() {
			count++
		}
	}

	return count
}

// FinishedCount is the number of tasks in a terminal state.
func (m *Store) FinishedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, t := range m.table {
		if t.IsTerminal() {
			count++
		}
	}

	return count
}
