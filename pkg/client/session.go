package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/astromechza/ordered-todos/pkg/todo"
)

// API is the subset of Client a Session drives.
type API interface {
	List(ctx context.Context) ([]todo.Item, error)
	Get(ctx context.Context, id string) (todo.Item, error)
	Create(ctx context.Context, title string, order *int64) (todo.Item, error)
	Update(ctx context.Context, id, version string, patch todo.Patch) (todo.Item, error)
	Delete(ctx context.Context, id, version string) error
	Reorder(ctx context.Context, entries []todo.ReorderEntry) ([]todo.ReorderResult, error)
}

// Session couples a Model with the API and implements the user-facing flows.
type Session struct {
	api   API
	model *Model
}

func NewSession(api API) *Session {
	return &Session{api: api, model: NewModel()}
}

func (s *Session) Model() *Model {
	return s.model
}

func (s *Session) Items() []todo.Item {
	return s.model.Items()
}

// Refresh replaces the local view with the server's list.
func (s *Session) Refresh(ctx context.Context) error {
	items, err := s.api.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list: %w", err)
	}
	s.model.Load(items)
	return nil
}

// Add creates an item. Nothing is shown locally until the server confirms it.
func (s *Session) Add(ctx context.Context, title string) (todo.Item, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return todo.Item{}, fmt.Errorf("%w: title is empty", todo.ErrValidation)
	}
	item, err := s.api.Create(ctx, title, nil)
	if err != nil {
		return todo.Item{}, fmt.Errorf("failed to create: %w", err)
	}
	s.model.ConfirmCreate(item)
	return item, nil
}

// Edit applies patch locally at once and sends it. When the server reports a version conflict
// the item is re-fetched and the patch retried once against the fresh version.
func (s *Session) Edit(ctx context.Context, id string, patch todo.Patch) (todo.Item, error) {
	version, err := s.model.Edit(id, patch)
	if err != nil {
		return todo.Item{}, err
	}
	item, err := s.api.Update(ctx, id, version, patch)
	if errors.Is(err, todo.ErrVersionMismatch) {
		slog.Info("version conflict, retrying with fresh copy", "id", id, "version", version)
		fresh, getErr := s.api.Get(ctx, id)
		if getErr != nil {
			err = getErr
		} else {
			item, err = s.api.Update(ctx, id, fresh.Version, patch)
		}
	}
	if err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			s.model.ConfirmDelete(id)
		}
		s.model.MarkStale()
		return todo.Item{}, fmt.Errorf("failed to update %s: %w", id, err)
	}
	s.model.ConfirmUpdate(item)
	return item, nil
}

func (s *Session) Rename(ctx context.Context, id, title string) (todo.Item, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return todo.Item{}, fmt.Errorf("%w: title is empty", todo.ErrValidation)
	}
	return s.Edit(ctx, id, todo.Patch{Title: &title})
}

func (s *Session) SetCompleted(ctx context.Context, id string, completed bool) (todo.Item, error) {
	return s.Edit(ctx, id, todo.Patch{Completed: &completed})
}

// Remove deletes an item. An item that is already gone on the server counts as removed.
func (s *Session) Remove(ctx context.Context, id string) error {
	if err := s.api.Delete(ctx, id, ""); err != nil && !errors.Is(err, todo.ErrNotFound) {
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}
	s.model.ConfirmDelete(id)
	return nil
}

// Move reorders locally at once, then sends the dense renumbering of the whole list. Failed
// entries are not rolled back; they mark the model stale and the returned results say which.
func (s *Session) Move(ctx context.Context, from, to int) ([]todo.ReorderResult, error) {
	if len(s.Reposition(from, to)) == 0 {
		return nil, nil
	}
	return s.PushOrder(ctx)
}

// Reposition is the local half of Move. It returns without contacting the server, so an
// interactive caller can redraw before the batch is sent with PushOrder.
func (s *Session) Reposition(from, to int) []todo.ReorderEntry {
	return s.model.Move(from, to)
}

// PushOrder sends the dense renumbering of the local order as it is when called. Batches sent
// after several quick moves therefore all carry the latest order, whatever order they run in.
func (s *Session) PushOrder(ctx context.Context) ([]todo.ReorderResult, error) {
	entries := s.model.Renumber()
	if len(entries) == 0 {
		return nil, nil
	}
	results, err := s.api.Reorder(ctx, entries)
	if err != nil {
		s.model.MarkStale()
		return nil, fmt.Errorf("failed to reorder: %w", err)
	}
	s.model.ApplyReorder(results)
	return results, nil
}

// Sync refreshes only when an earlier write was rejected.
func (s *Session) Sync(ctx context.Context) error {
	if !s.model.Stale() {
		return nil
	}
	return s.Refresh(ctx)
}

// IndexOf returns the display position of id, or -1.
func (s *Session) IndexOf(id string) int {
	for i, it := range s.model.Items() {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Resolve finds an item by exact id, unique id prefix or 1-based display position.
func (s *Session) Resolve(ref string) (todo.Item, error) {
	items := s.model.Items()
	var pos int
	if _, err := fmt.Sscanf(ref, "%d", &pos); err == nil && fmt.Sprint(pos) == ref {
		if pos < 1 || pos > len(items) {
			return todo.Item{}, fmt.Errorf("%w: no item at position %d", todo.ErrNotFound, pos)
		}
		return items[pos-1], nil
	}
	var matches []todo.Item
	for _, it := range items {
		if it.ID == ref {
			return it, nil
		}
		if strings.HasPrefix(it.ID, ref) {
			matches = append(matches, it)
		}
	}
	switch len(matches) {
	case 0:
		return todo.Item{}, fmt.Errorf("%w: %s", todo.ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return todo.Item{}, fmt.Errorf("%w: %s matches %d items", todo.ErrValidation, ref, len(matches))
	}
}
