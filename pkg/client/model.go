package client

import (
	"fmt"
	"sync"

	"github.com/astromechza/ordered-todos/pkg/todo"
)

// Model is the client's view of the list in two layers. The confirmed layer holds the last
// server echo of each item, including the version to send with its next mutation. The tentative
// layer is what the user sees: it changes as soon as the user acts and is overwritten by server
// echoes as they arrive. A failed reorder is never rolled back; the model is only marked stale
// so the next refresh replaces both layers.
type Model struct {
	mu        sync.Mutex
	confirmed map[string]todo.Item
	view      []todo.Item
	stale     bool
}

func NewModel() *Model {
	return &Model{confirmed: make(map[string]todo.Item)}
}

// Load replaces both layers with a fresh server listing.
func (m *Model) Load(items []todo.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmed = make(map[string]todo.Item, len(items))
	m.view = make([]todo.Item, len(items))
	copy(m.view, items)
	for _, it := range items {
		m.confirmed[it.ID] = it
	}
	todo.Sort(m.view)
	m.stale = false
}

// Items returns a copy of the tentative layer in display order.
func (m *Model) Items() []todo.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]todo.Item, len(m.view))
	copy(out, m.view)
	return out
}

func (m *Model) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.view)
}

// Stale reports whether some server write was rejected since the last Load.
func (m *Model) Stale() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stale
}

func (m *Model) MarkStale() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stale = true
}

// Version returns the confirmed version of an item.
func (m *Model) Version(id string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.confirmed[id]
	return it.Version, ok
}

// ConfirmCreate inserts a server-created item into its sorted position.
func (m *Model) ConfirmCreate(item todo.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmed[item.ID] = item
	if i := m.index(item.ID); i >= 0 {
		m.view[i] = item
	} else {
		m.view = append(m.view, item)
	}
	todo.Sort(m.view)
}

// Edit applies patch to the tentative layer and returns the confirmed version to send with it.
func (m *Model) Edit(id string, patch todo.Patch) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(id)
	if i < 0 {
		return "", fmt.Errorf("%w: %s", todo.ErrNotFound, id)
	}
	m.view[i] = patch.Apply(m.view[i])
	if patch.Order != nil {
		todo.Sort(m.view)
	}
	return m.confirmed[id].Version, nil
}

// ConfirmUpdate overwrites both layers with the server echo of an item.
func (m *Model) ConfirmUpdate(item todo.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmed[item.ID] = item
	i := m.index(item.ID)
	if i < 0 {
		m.view = append(m.view, item)
		todo.Sort(m.view)
		return
	}
	reorder := m.view[i].Order != item.Order
	m.view[i] = item
	if reorder {
		todo.Sort(m.view)
	}
}

func (m *Model) ConfirmDelete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.confirmed, id)
	if i := m.index(id); i >= 0 {
		m.view = append(m.view[:i], m.view[i+1:]...)
	}
}

// Move relocates the item at from to position to, renumbers every item densely from 1 and
// returns the full batch to send to the server.
func (m *Model) Move(from, to int) []todo.ReorderEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view = todo.Move(m.view, from, to)
	return todo.Renumber(m.view)
}

// Renumber assigns dense orders to the tentative layer as displayed and returns them as a batch.
func (m *Model) Renumber() []todo.ReorderEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return todo.Renumber(m.view)
}

// ApplyReorder reconciles per-item reorder results. Successful entries advance the confirmed
// layer; any other outcome leaves the tentative order in place and marks the model stale. An ok
// entry whose server-side previous version differs from the confirmed one means another writer
// changed the item, so its version is not adopted and the model is marked stale instead.
func (m *Model) ApplyReorder(results []todo.ReorderResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range results {
		if r.Status != todo.ReorderOK {
			m.stale = true
			continue
		}
		it, ok := m.confirmed[r.ID]
		if !ok || (r.Previous != "" && r.Previous != it.Version) {
			m.stale = true
			continue
		}
		it.Order = r.Order
		it.Version = r.Version
		m.confirmed[r.ID] = it
		if i := m.index(r.ID); i >= 0 {
			m.view[i].Version = r.Version
		}
	}
}

func (m *Model) index(id string) int {
	for i, it := range m.view {
		if it.ID == id {
			return i
		}
	}
	return -1
}
