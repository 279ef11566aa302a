// Package memory is an in-process implementation of store.Store.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/astromechza/ordered-todos/pkg/store"
	"github.com/astromechza/ordered-todos/pkg/todo"
)

type Store struct {
	mu   sync.RWMutex
	rows map[string]todo.Item
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{rows: make(map[string]todo.Item)}
}

func (s *Store) Get(ctx context.Context, id string) (todo.Item, error) {
	if err := ctx.Err(); err != nil {
		return todo.Item{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[id]
	if !ok {
		return todo.Item{}, todo.ErrNotFound
	}
	return row, nil
}

func (s *Store) Put(ctx context.Context, item todo.Item, expectedVersion string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[item.ID]
	if !ok {
		return "", todo.ErrNotFound
	}
	if row.Version != expectedVersion {
		return "", todo.ErrVersionMismatch
	}
	item.Version = store.NewVersion()
	s.rows[item.ID] = item
	return item.Version, nil
}

func (s *Store) Insert(ctx context.Context, item todo.Item) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[item.ID]; ok {
		return "", fmt.Errorf("item %s already exists", item.ID)
	}
	item.Version = store.NewVersion()
	s.rows[item.ID] = item
	return item.Version, nil
}

func (s *Store) Delete(ctx context.Context, id string, expectedVersion string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return todo.ErrNotFound
	}
	if expectedVersion != "" && row.Version != expectedVersion {
		return todo.ErrVersionMismatch
	}
	delete(s.rows, id)
	return nil
}

func (s *Store) Scan(ctx context.Context) ([]todo.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]todo.Item, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	return out, nil
}

func (s *Store) Close() error {
	return nil
}
