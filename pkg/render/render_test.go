package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/astromechza/ordered-todos/pkg/todo"
)

var sample = []todo.Item{
	{ID: "0123456789abcdef", Title: "buy milk", Order: 1, Version: "v1"},
	{ID: "fedcba9876543210", Title: "walk dog", Completed: true, Order: 2, Version: "v2"},
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	if err := Items(&buf, sample, FormatTable); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"TITLE", "buy milk", "walk dog", "[x]", "[ ]", "01234567"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "0123456789abcdef") {
		t.Error("ids should be shortened")
	}
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Items(&buf, nil, FormatTable); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "No todos." {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Items(&buf, sample, FormatJSON); err != nil {
		t.Fatal(err)
	}
	var got []todo.Item
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1] != sample[1] {
		t.Errorf("got %+v", got)
	}

	buf.Reset()
	if err := Items(&buf, nil, FormatJSON); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty list rendered as %q", buf.String())
	}
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Items(&buf, sample, FormatYAML); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "title: buy milk") {
		t.Errorf("unexpected yaml:\n%s", buf.String())
	}
	var got []todo.Item
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != sample[0] {
		t.Errorf("got %+v", got)
	}
}

func TestUnknownFormat(t *testing.T) {
	if err := Items(&bytes.Buffer{}, sample, "csv"); err == nil {
		t.Error("expected error")
	}
}

func TestShortID(t *testing.T) {
	if ShortID("abc") != "abc" || ShortID("0123456789") != "01234567" {
		t.Error("unexpected short ids")
	}
}
