// Package storetest holds the conformance checks every store.Store implementation must pass.
package storetest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/astromechza/ordered-todos/pkg/store"
	"github.com/astromechza/ordered-todos/pkg/todo"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) store.Store

// Run executes the conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"InsertThenGet", testInsertThenGet},
		{"InsertDuplicate", testInsertDuplicate},
		{"GetMissing", testGetMissing},
		{"PutAdvancesVersion", testPutAdvancesVersion},
		{"PutStaleVersion", testPutStaleVersion},
		{"PutMissing", testPutMissing},
		{"DeleteUnconditional", testDeleteUnconditional},
		{"DeleteConditional", testDeleteConditional},
		{"ScanAll", testScanAll},
		{"ConcurrentPutsOneWinner", testConcurrentPuts},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() {
				if err := s.Close(); err != nil {
					t.Errorf("close: %v", err)
				}
			})
			tc.fn(t, s)
		})
	}
}

func mustInsert(t *testing.T, s store.Store, item todo.Item) string {
	t.Helper()
	v, err := s.Insert(context.Background(), item)
	if err != nil {
		t.Fatalf("insert %s: %v", item.ID, err)
	}
	if v == "" {
		t.Fatalf("insert %s returned empty version", item.ID)
	}
	return v
}

func testInsertThenGet(t *testing.T, s store.Store) {
	v := mustInsert(t, s, todo.Item{ID: "a", Title: "milk", Order: 4})
	got, err := s.Get(context.Background(), "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := todo.Item{ID: "a", Title: "milk", Order: 4, Version: v}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func testInsertDuplicate(t *testing.T, s store.Store) {
	mustInsert(t, s, todo.Item{ID: "a", Title: "one"})
	if _, err := s.Insert(context.Background(), todo.Item{ID: "a", Title: "two"}); err == nil {
		t.Fatal("expected duplicate insert to fail")
	}
	got, _ := s.Get(context.Background(), "a")
	if got.Title != "one" {
		t.Errorf("duplicate insert overwrote row: %+v", got)
	}
}

func testGetMissing(t *testing.T, s store.Store) {
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, todo.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func testPutAdvancesVersion(t *testing.T, s store.Store) {
	v1 := mustInsert(t, s, todo.Item{ID: "a", Title: "milk", Order: 1})
	v2, err := s.Put(context.Background(), todo.Item{ID: "a", Title: "oat milk", Completed: true, Order: 2}, v1)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if v2 == "" || v2 == v1 {
		t.Fatalf("version did not advance: %q -> %q", v1, v2)
	}
	got, _ := s.Get(context.Background(), "a")
	want := todo.Item{ID: "a", Title: "oat milk", Completed: true, Order: 2, Version: v2}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func testPutStaleVersion(t *testing.T, s store.Store) {
	v1 := mustInsert(t, s, todo.Item{ID: "a", Title: "milk"})
	v2, err := s.Put(context.Background(), todo.Item{ID: "a", Title: "first"}, v1)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := s.Put(context.Background(), todo.Item{ID: "a", Title: "second"}, v1); !errors.Is(err, todo.ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
	got, _ := s.Get(context.Background(), "a")
	if got.Title != "first" || got.Version != v2 {
		t.Errorf("stale put wrote data: %+v", got)
	}
}

func testPutMissing(t *testing.T, s store.Store) {
	if _, err := s.Put(context.Background(), todo.Item{ID: "ghost"}, "v"); !errors.Is(err, todo.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func testDeleteUnconditional(t *testing.T, s store.Store) {
	mustInsert(t, s, todo.Item{ID: "a"})
	if err := s.Delete(context.Background(), "a", ""); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(context.Background(), "a"); !errors.Is(err, todo.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(context.Background(), "a", ""); !errors.Is(err, todo.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func testDeleteConditional(t *testing.T, s store.Store) {
	v1 := mustInsert(t, s, todo.Item{ID: "a"})
	v2, err := s.Put(context.Background(), todo.Item{ID: "a", Title: "x"}, v1)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Delete(context.Background(), "a", v1); !errors.Is(err, todo.ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
	if err := s.Delete(context.Background(), "a", v2); err != nil {
		t.Fatalf("delete with current version: %v", err)
	}
	if err := s.Delete(context.Background(), "a", v2); !errors.Is(err, todo.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func testScanAll(t *testing.T, s store.Store) {
	got, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan empty: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty scan, got %v", got)
	}
	versions := map[string]string{}
	for _, id := range []string{"c", "a", "b"} {
		versions[id] = mustInsert(t, s, todo.Item{ID: id, Title: "t-" + id})
	}
	got, err = s.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	sort.Slice(got, func(i, j int) bool { return got[i].ID < got[j].ID })
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %v", got)
	}
	for _, it := range got {
		if it.Title != "t-"+it.ID || it.Version != versions[it.ID] {
			t.Errorf("unexpected row %+v", it)
		}
	}
}

func testConcurrentPuts(t *testing.T, s store.Store) {
	v1 := mustInsert(t, s, todo.Item{ID: "a"})
	const writers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, losses := 0, 0
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Put(context.Background(), todo.Item{ID: "a", Order: int64(i)}, v1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, todo.ErrVersionMismatch):
				losses++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if wins != 1 || losses != writers-1 {
		t.Errorf("expected exactly one winner, got %d wins and %d losses", wins, losses)
	}
}
