// Package store defines the key-value table that holds todo items. Every write is scoped to a
// single row and mutations of existing rows are compare-and-swap on the row's version token.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/astromechza/ordered-todos/pkg/todo"
)

// DefaultPartition is the fixed partition key shared by all items.
const DefaultPartition = "todo"

// Store is the Item Store contract. Implementations return todo.ErrNotFound for missing rows,
// todo.ErrVersionMismatch when a conditional write loses, and wrap backend failures with
// todo.ErrStoreUnavailable.
type Store interface {
	// Get returns the item with its current version.
	Get(ctx context.Context, id string) (todo.Item, error)

	// Put replaces the row only if its stored version still equals expectedVersion and returns
	// the new version. The Version field of item is ignored.
	Put(ctx context.Context, item todo.Item, expectedVersion string) (string, error)

	// Insert adds a new row and returns its first version.
	Insert(ctx context.Context, item todo.Item) (string, error)

	// Delete removes the row. An empty expectedVersion deletes unconditionally.
	Delete(ctx context.Context, id string, expectedVersion string) error

	// Scan returns every item in the partition in no particular order.
	Scan(ctx context.Context) ([]todo.Item, error)

	Close() error
}

// NewVersion generates a fresh opaque version token.
func NewVersion() string {
	return uuid.NewString()
}
