package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/astromechza/ordered-todos/pkg/store"
	"github.com/astromechza/ordered-todos/pkg/store/storetest"
	"github.com/astromechza/ordered-todos/pkg/todo"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := Open(context.Background(), filepath.Join(t.TempDir(), "todos.sqlite3"), "todos", "todo")
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		return s
	})
}

func TestRejectsBadTableName(t *testing.T) {
	if _, err := Open(context.Background(), filepath.Join(t.TempDir(), "x.sqlite3"), "todos; DROP", "todo"); err == nil {
		t.Fatal("expected invalid table name to be rejected")
	}
}

func TestPartitionsAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.sqlite3")
	ctx := context.Background()

	a, err := Open(ctx, path, "todos", "alpha")
	if err != nil {
		t.Fatalf("open alpha: %v", err)
	}
	defer a.Close()
	if _, err := a.Insert(ctx, todo.Item{ID: "x", Title: "in alpha"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	b, err := Open(ctx, path, "todos", "beta")
	if err != nil {
		t.Fatalf("open beta: %v", err)
	}
	defer b.Close()
	items, err := b.Scan(ctx)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("beta partition should be empty, got %v", items)
	}
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.sqlite3")
	ctx := context.Background()

	s, err := Open(ctx, path, "todos", "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	v, err := s.Insert(ctx, todo.Item{ID: "keep", Title: "persisted", Completed: true, Order: 12})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = Open(ctx, path, "todos", "")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Get(ctx, "keep")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := todo.Item{ID: "keep", Title: "persisted", Completed: true, Order: 12, Version: v}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
