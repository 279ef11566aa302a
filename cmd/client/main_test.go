package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/astromechza/ordered-todos/pkg/api"
	"github.com/astromechza/ordered-todos/pkg/service"
	"github.com/astromechza/ordered-todos/pkg/store/memory"
	"github.com/astromechza/ordered-todos/pkg/todo"
)

func TestBaseURL(t *testing.T) {
	if got := baseURL("localhost:8080"); got != "http://localhost:8080" {
		t.Errorf("got %q", got)
	}
	if got := baseURL("https://todos.example"); got != "https://todos.example" {
		t.Errorf("got %q", got)
	}
}

func run(t *testing.T, srvURL string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append([]string{"--addr", srvURL, "--output", "json"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands(t *testing.T) {
	svc := service.New(memory.New())
	srv := httptest.NewServer(api.NewHandler(svc, api.Options{}))
	defer srv.Close()

	for _, title := range []string{"one", "two", "three"} {
		if _, err := run(t, srv.URL, "add", title); err != nil {
			t.Fatalf("add %s: %v", title, err)
		}
	}
	if _, err := run(t, srv.URL, "move", "3", "1"); err != nil {
		t.Fatalf("move: %v", err)
	}
	if _, err := run(t, srv.URL, "done", "2"); err != nil {
		t.Fatalf("done: %v", err)
	}
	if _, err := run(t, srv.URL, "rm", "3"); err != nil {
		t.Fatalf("rm: %v", err)
	}

	out, err := run(t, srv.URL, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var items []todo.Item
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	var titles []string
	for _, it := range items {
		titles = append(titles, it.Title)
	}
	if got := strings.Join(titles, ","); got != "three,one" {
		t.Fatalf("titles = %q", got)
	}
	if items[0].Completed || !items[1].Completed {
		t.Errorf("unexpected completion %+v", items)
	}
}

func TestMoveRejectsBadPosition(t *testing.T) {
	svc := service.New(memory.New())
	srv := httptest.NewServer(api.NewHandler(svc, api.Options{}))
	defer srv.Close()
	if _, err := run(t, srv.URL, "add", "one"); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, srv.URL, "move", "1", "zero"); err == nil {
		t.Error("expected error")
	}
}
