package client

import (
	"testing"

	"github.com/astromechza/ordered-todos/pkg/todo"
)

func viewIDs(m *Model) string {
	out := ""
	for _, it := range m.Items() {
		out += it.ID
	}
	return out
}

func seeded() *Model {
	m := NewModel()
	m.Load([]todo.Item{
		{ID: "c", Title: "C", Order: 3, Version: "vc"},
		{ID: "a", Title: "A", Order: 1, Version: "va"},
		{ID: "b", Title: "B", Order: 2, Version: "vb"},
	})
	return m
}

func TestModelLoadSorts(t *testing.T) {
	m := seeded()
	if got := viewIDs(m); got != "abc" {
		t.Errorf("view = %s, want abc", got)
	}
	if m.Stale() {
		t.Error("fresh load should not be stale")
	}
}

func TestModelConfirmCreateSortsIntoPlace(t *testing.T) {
	m := seeded()
	m.ConfirmCreate(todo.Item{ID: "z", Order: 2, Version: "vz"})
	if got := viewIDs(m); got != "abzc" {
		t.Errorf("view = %s, want abzc", got)
	}
	if v, ok := m.Version("z"); !ok || v != "vz" {
		t.Errorf("confirmed version = %q, %v", v, ok)
	}
}

func TestModelEditIsOptimistic(t *testing.T) {
	m := seeded()
	title := "changed"
	version, err := m.Edit("b", todo.Patch{Title: &title})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if version != "vb" {
		t.Errorf("edit should return confirmed version, got %q", version)
	}
	if m.Items()[1].Title != "changed" {
		t.Error("local view should show the edit immediately")
	}

	m.ConfirmUpdate(todo.Item{ID: "b", Title: "server says", Order: 2, Version: "vb2"})
	if m.Items()[1].Title != "server says" {
		t.Error("server echo should overwrite local copy")
	}
	if v, _ := m.Version("b"); v != "vb2" {
		t.Errorf("confirmed version = %q, want vb2", v)
	}
}

func TestModelEditUnknown(t *testing.T) {
	m := seeded()
	if _, err := m.Edit("nope", todo.Patch{}); err == nil {
		t.Error("expected error editing unknown item")
	}
}

func TestModelMoveRenumbersDensely(t *testing.T) {
	m := seeded()
	entries := m.Move(2, 0)
	if got := viewIDs(m); got != "cab" {
		t.Fatalf("view = %s, want cab", got)
	}
	want := []todo.ReorderEntry{{ID: "c", Order: 1}, {ID: "a", Order: 2}, {ID: "b", Order: 3}}
	if len(entries) != len(want) {
		t.Fatalf("entries = %v", entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %v, want %v", i, entries[i], want[i])
		}
	}
	for i, it := range m.Items() {
		if it.Order != int64(i+1) {
			t.Errorf("item %s order = %d, want %d", it.ID, it.Order, i+1)
		}
	}
}

func TestModelApplyReorderPartialFailureKeepsLocalOrder(t *testing.T) {
	m := seeded()
	m.Move(2, 0)
	m.ApplyReorder([]todo.ReorderResult{
		{ID: "c", Status: todo.ReorderOK, Order: 1, Version: "vc2", Previous: "vc"},
		{ID: "a", Status: todo.ReorderConflict, Order: 2, Previous: "va"},
		{ID: "b", Status: todo.ReorderOK, Order: 3, Version: "vb2", Previous: "vb"},
	})
	if got := viewIDs(m); got != "cab" {
		t.Errorf("failed reorder must not roll back, view = %s", got)
	}
	if !m.Stale() {
		t.Error("model should be stale after a failed entry")
	}
	if v, _ := m.Version("c"); v != "vc2" {
		t.Errorf("c version = %q, want vc2", v)
	}
	if v, _ := m.Version("a"); v != "va" {
		t.Errorf("a version = %q, want unchanged va", v)
	}

	m.Load([]todo.Item{{ID: "a", Order: 1, Version: "va9"}})
	if m.Stale() || viewIDs(m) != "a" {
		t.Error("load should reset stale flag and both layers")
	}
}

func TestModelApplyReorderDetectsForeignChange(t *testing.T) {
	m := seeded()
	m.Move(0, 0)
	// b was renamed elsewhere: the server skipped the write and echoed its newer version
	m.ApplyReorder([]todo.ReorderResult{
		{ID: "a", Status: todo.ReorderOK, Order: 1, Version: "va", Previous: "va"},
		{ID: "b", Status: todo.ReorderOK, Order: 2, Version: "vb-renamed", Previous: "vb-renamed"},
		{ID: "c", Status: todo.ReorderOK, Order: 3, Version: "vc", Previous: "vc"},
	})
	if !m.Stale() {
		t.Error("model should be stale when an item changed on the server")
	}
	if v, _ := m.Version("b"); v != "vb" {
		t.Errorf("b version = %q, want vb kept until the next load", v)
	}
	if v, _ := m.Version("a"); v != "va" {
		t.Errorf("a version = %q, want va", v)
	}
}

func TestModelConfirmDelete(t *testing.T) {
	m := seeded()
	m.ConfirmDelete("b")
	m.ConfirmDelete("missing")
	if got := viewIDs(m); got != "ac" {
		t.Errorf("view = %s, want ac", got)
	}
	if _, ok := m.Version("b"); ok {
		t.Error("deleted item should leave the confirmed layer")
	}
}
