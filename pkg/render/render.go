// Package render writes item lists for humans and scripts.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/astromechza/ordered-todos/pkg/todo"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

const (
	boxChecked   = "[x]"
	boxUnchecked = "[ ]"
	shortIDLen   = 8
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	doneStyle   = cellStyle.Foreground(lipgloss.Color("8")).Strikethrough(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Items writes items in the given format.
func Items(w io.Writer, items []todo.Item, format string) error {
	switch format {
	case "", FormatTable:
		return itemsTable(w, items)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if items == nil {
			items = []todo.Item{}
		}
		return enc.Encode(items)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(items); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// Item writes a single item in the given format.
func Item(w io.Writer, item todo.Item, format string) error {
	if format == "" || format == FormatTable {
		return itemsTable(w, []todo.Item{item})
	}
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(item)
	}
	return Items(w, []todo.Item{item}, format)
}

func itemsTable(w io.Writer, items []todo.Item) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No todos.")
		return err
	}
	done := make(map[int]bool, len(items))
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("#", "", "TITLE", "ORDER", "ID")
	for i, it := range items {
		box := boxUnchecked
		if it.Completed {
			box = boxChecked
			done[i] = true
		}
		t.Row(strconv.Itoa(i+1), box, it.Title, strconv.FormatInt(it.Order, 10), ShortID(it.ID))
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case done[row] && col == 2:
			return doneStyle
		default:
			return cellStyle
		}
	})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// ShortID abbreviates an id for display.
func ShortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}
