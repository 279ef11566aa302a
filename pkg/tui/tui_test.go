package tui

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/astromechza/ordered-todos/pkg/api"
	"github.com/astromechza/ordered-todos/pkg/client"
	"github.com/astromechza/ordered-todos/pkg/service"
	"github.com/astromechza/ordered-todos/pkg/store/memory"
)

func newModel(t *testing.T, titles ...string) (Model, *service.Service) {
	t.Helper()
	ctx := context.Background()
	svc := service.New(memory.New())
	for i, title := range titles {
		order := int64(i + 1)
		if _, err := svc.Create(ctx, title, &order); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	srv := httptest.NewServer(api.NewHandler(svc, api.Options{}))
	t.Cleanup(srv.Close)
	c, err := client.New(srv.URL, srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	m := New(ctx, client.NewSession(c))
	return drive(t, m, m.Init()), svc
}

// drive runs a command synchronously and feeds its message back into the model.
func drive(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			break
		}
		next, nextCmd := m.Update(msg)
		m, cmd = next.(Model), nextCmd
	}
	return m
}

func press(t *testing.T, m Model, keys string) Model {
	t.Helper()
	var msg tea.KeyMsg
	switch keys {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	next, cmd := m.Update(msg)
	return drive(t, next.(Model), cmd)
}

func titles(m Model) string {
	var out []string
	for _, it := range m.session.Items() {
		out = append(out, it.Title)
	}
	return strings.Join(out, ",")
}

func TestInitLoadsList(t *testing.T) {
	m, _ := newModel(t, "one", "two")
	if got := titles(m); got != "one,two" {
		t.Errorf("titles = %q", got)
	}
	if !strings.Contains(m.View(), "0/2 done") {
		t.Errorf("view missing counter:\n%s", m.View())
	}
}

func TestMoveDownReordersServer(t *testing.T) {
	m, svc := newModel(t, "one", "two", "three")
	m = press(t, m, "J")
	if got := titles(m); got != "two,one,three" {
		t.Errorf("local titles = %q", got)
	}
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
	if m.status != "reordered" || m.err != nil {
		t.Errorf("status = %q, err = %v", m.status, m.err)
	}
	items, err := svc.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if items[0].Title != "two" || items[1].Title != "one" {
		t.Errorf("server order = %+v", items)
	}
}

func TestQuickMovesApplyLocallyBeforeSending(t *testing.T) {
	m, svc := newModel(t, "one", "two", "three")

	next, first := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("J")})
	m = next.(Model)
	if got := titles(m); got != "two,one,three" || m.cursor != 1 {
		t.Fatalf("after first move titles = %q, cursor = %d", got, m.cursor)
	}
	next, second := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("J")})
	m = next.(Model)
	if got := titles(m); got != "two,three,one" || m.cursor != 2 {
		t.Fatalf("after second move titles = %q, cursor = %d", got, m.cursor)
	}

	// the batches may complete in either order
	m = drive(t, m, second)
	m = drive(t, m, first)
	if got := titles(m); got != "two,three,one" {
		t.Errorf("local titles = %q", got)
	}
	items, err := svc.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var server []string
	for _, it := range items {
		server = append(server, it.Title)
	}
	if got := strings.Join(server, ","); got != "two,three,one" {
		t.Errorf("server titles = %q", got)
	}
	if m.session.Model().Stale() {
		t.Error("no write was rejected, model should not be stale")
	}
}

func TestMoveUpAtTopIsNoop(t *testing.T) {
	m, _ := newModel(t, "one", "two")
	m = press(t, m, "K")
	if got := titles(m); got != "one,two" {
		t.Errorf("titles = %q", got)
	}
}

func TestToggleAndDelete(t *testing.T) {
	m, svc := newModel(t, "one", "two")
	m = press(t, m, " ")
	if !m.session.Items()[0].Completed {
		t.Fatal("expected first item completed")
	}
	if !strings.Contains(m.View(), "1/2 done") {
		t.Errorf("view:\n%s", m.View())
	}
	m = press(t, m, "d")
	items, _ := svc.List(context.Background())
	if len(items) != 1 || items[0].Title != "two" {
		t.Errorf("server items = %+v", items)
	}
	if got := titles(m); got != "two" {
		t.Errorf("titles = %q", got)
	}
}

func TestAddFocusesNewItem(t *testing.T) {
	m, _ := newModel(t, "one")
	m = press(t, m, "a")
	if m.mode != adding {
		t.Fatal("expected add mode")
	}
	m = press(t, m, "new")
	m = press(t, m, "enter")
	if m.mode != browsing || m.err != nil {
		t.Fatalf("mode = %v, err = %v", m.mode, m.err)
	}
	if got := titles(m); got != "one,new" {
		t.Errorf("titles = %q", got)
	}
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
}

func TestEmptyTitleRejected(t *testing.T) {
	m, _ := newModel(t)
	m = press(t, m, "a")
	m = press(t, m, "enter")
	if m.err == nil || m.mode != adding {
		t.Errorf("expected error in add mode, got mode=%v err=%v", m.mode, m.err)
	}
	m = press(t, m, "esc")
	if m.mode != browsing {
		t.Error("esc should cancel")
	}
}

func TestEditRenames(t *testing.T) {
	m, svc := newModel(t, "one")
	m = press(t, m, "e")
	m.input.SetValue("uno")
	m = press(t, m, "enter")
	items, _ := svc.List(context.Background())
	if items[0].Title != "uno" {
		t.Errorf("server title = %q", items[0].Title)
	}
}
