// Package service implements the todo operations on top of a store.Store. It holds no locks and no
// per-request state; the store's compare-and-swap is the only coordination between requests.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/astromechza/ordered-todos/pkg/store"
	"github.com/astromechza/ordered-todos/pkg/todo"
)

type Service struct {
	store store.Store
	clock *todo.OrderClock
	newID func() string
}

type Option func(*Service)

// WithOrderClock replaces the source of default order values.
func WithOrderClock(c *todo.OrderClock) Option {
	return func(s *Service) { s.clock = c }
}

// WithIDGenerator replaces the item id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		clock: todo.NewOrderClock(nil),
		newID: newID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newID returns a 32 character hex id, the same shape as a dashless GUID.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// List returns every item sorted by (order, id).
func (s *Service) List(ctx context.Context) ([]todo.Item, error) {
	items, err := s.store.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan items: %w", err)
	}
	todo.Sort(items)
	return items, nil
}

func (s *Service) Get(ctx context.Context, id string) (todo.Item, error) {
	item, err := s.store.Get(ctx, id)
	if err != nil {
		return todo.Item{}, fmt.Errorf("failed to get item %s: %w", id, err)
	}
	return item, nil
}

// Create stores a new incomplete item. Without an explicit order the item is placed after every
// existing item.
func (s *Service) Create(ctx context.Context, title string, order *int64) (todo.Item, error) {
	item := todo.Item{ID: s.newID(), Title: title}
	if order != nil {
		item.Order = *order
	} else {
		existing, err := s.store.Scan(ctx)
		if err != nil {
			return todo.Item{}, fmt.Errorf("failed to scan items: %w", err)
		}
		floor, _ := todo.MaxOrder(existing)
		item.Order = s.clock.Next(floor)
	}

	version, err := s.store.Insert(ctx, item)
	if err != nil {
		return todo.Item{}, fmt.Errorf("failed to insert item: %w", err)
	}
	item.Version = version
	slog.Debug("created item", "id", item.ID, "order", item.Order)
	return item, nil
}

// Update applies patch to the item if version is still current. A lost race returns
// todo.ErrVersionMismatch and the caller is expected to re-fetch and retry.
func (s *Service) Update(ctx context.Context, id, version string, patch todo.Patch) (todo.Item, error) {
	if version == "" {
		return todo.Item{}, fmt.Errorf("%w: version is required", todo.ErrValidation)
	}
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return todo.Item{}, fmt.Errorf("failed to get item %s: %w", id, err)
	}
	next := patch.Apply(current)
	newVersion, err := s.store.Put(ctx, next, version)
	if err != nil {
		if errors.Is(err, todo.ErrVersionMismatch) {
			slog.Warn("rejected stale update", "id", id, "version", version, "current", current.Version)
		}
		return todo.Item{}, fmt.Errorf("failed to put item %s: %w", id, err)
	}
	next.Version = newVersion
	slog.Debug("updated item", "id", id, "version", newVersion)
	return next, nil
}

// Delete removes the item. An empty version deletes regardless of concurrent edits.
func (s *Service) Delete(ctx context.Context, id, version string) error {
	if err := s.store.Delete(ctx, id, version); err != nil {
		return fmt.Errorf("failed to delete item %s: %w", id, err)
	}
	slog.Debug("deleted item", "id", id)
	return nil
}

// Reorder sets the order of each listed item independently. Every entry is attempted even when
// earlier ones fail, and each gets its own result.
func (s *Service) Reorder(ctx context.Context, entries []todo.ReorderEntry) ([]todo.ReorderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	results := make([]todo.ReorderResult, 0, len(entries))
	for _, e := range entries {
		previous, version, err := s.reorderOne(ctx, e)
		res := todo.ReorderResult{ID: e.ID, Order: e.Order, Status: todo.StatusFor(err), Version: version, Previous: previous}
		if err != nil {
			slog.Warn("failed to reorder item", "id", e.ID, "status", res.Status, "err", err)
		}
		results = append(results, res)
	}
	return results, nil
}

// reorderOne returns the version it read and the version the item has afterwards.
func (s *Service) reorderOne(ctx context.Context, e todo.ReorderEntry) (string, string, error) {
	current, err := s.store.Get(ctx, e.ID)
	if err != nil {
		return "", "", err
	}
	if current.Order == e.Order {
		return current.Version, current.Version, nil
	}
	previous := current.Version
	current.Order = e.Order
	version, err := s.store.Put(ctx, current, previous)
	if err != nil {
		return previous, "", err
	}
	return previous, version, nil
}
