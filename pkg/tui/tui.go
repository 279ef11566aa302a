// Package tui is an interactive terminal view of the list. Moving the selected item up or down
// plays the role of a drag and drop: the list is reordered locally at once and the whole dense
// renumbering is sent to the server in one batch.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/astromechza/ordered-todos/pkg/client"
	"github.com/astromechza/ordered-todos/pkg/todo"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Strikethrough(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
)

type keyMap struct {
	Up, Down, MoveUp, MoveDown, Toggle, Add, Edit, Delete, Refresh, Quit key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.MoveUp, k.MoveDown, k.Toggle, k.Add, k.Edit, k.Delete, k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.MoveUp, k.MoveDown}, {k.Toggle, k.Add, k.Edit, k.Delete}, {k.Refresh, k.Quit}}
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	MoveUp:   key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("K", "move up")),
	MoveDown: key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("J", "move down")),
	Toggle:   key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
	Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type mode int

const (
	browsing mode = iota
	adding
	editing
)

// doneMsg is delivered when a background call against the server finishes.
type doneMsg struct {
	status string
	err    error
	// focus moves the cursor onto this item once the list is redrawn
	focus string
}

type Model struct {
	ctx     context.Context
	session *client.Session
	cursor  int
	mode    mode
	editID  string
	input   textinput.Model
	help    help.Model
	status  string
	err     error
}

func New(ctx context.Context, session *client.Session) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200
	return Model{ctx: ctx, session: session, input: ti, help: help.New()}
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(ctx context.Context, session *client.Session) error {
	_, err := tea.NewProgram(New(ctx, session), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.refresh()
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		if err := m.session.Refresh(m.ctx); err != nil {
			return doneMsg{err: err}
		}
		return doneMsg{status: "refreshed"}
	}
}

func (m Model) selected() (todo.Item, bool) {
	items := m.session.Items()
	if m.cursor < 0 || m.cursor >= len(items) {
		return todo.Item{}, false
	}
	return items[m.cursor], true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.status, m.err = msg.status, msg.err
		if msg.focus != "" {
			if i := m.session.IndexOf(msg.focus); i >= 0 {
				m.cursor = i
			}
		}
		m.clampCursor()
		return m, nil
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if m.mode != browsing {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		m.cursor--
	case key.Matches(msg, keys.Down):
		m.cursor++
	case key.Matches(msg, keys.MoveUp):
		return m.move(-1)
	case key.Matches(msg, keys.MoveDown):
		return m.move(1)
	case key.Matches(msg, keys.Toggle):
		item, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			_, err := m.session.SetCompleted(m.ctx, item.ID, !item.Completed)
			return doneMsg{status: "saved", err: err}
		}
	case key.Matches(msg, keys.Add):
		m.mode = adding
		m.input.SetValue("")
		m.input.Placeholder = "New task"
		m.input.Focus()
	case key.Matches(msg, keys.Edit):
		item, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.mode = editing
		m.editID = item.ID
		m.input.SetValue(item.Title)
		m.input.CursorEnd()
		m.input.Focus()
	case key.Matches(msg, keys.Delete):
		item, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return doneMsg{status: "deleted", err: m.session.Remove(m.ctx, item.ID)}
		}
	case key.Matches(msg, keys.Refresh):
		return m, m.refresh()
	}
	m.clampCursor()
	return m, nil
}

// move drops the selected item one slot away. The list is reordered here, before the batch is
// sent, so the next key press sees the new positions.
func (m Model) move(delta int) (tea.Model, tea.Cmd) {
	from := m.cursor
	to := from + delta
	if to < 0 || to >= m.session.Model().Len() {
		return m, nil
	}
	m.session.Reposition(from, to)
	m.cursor = to
	return m, func() tea.Msg {
		results, err := m.session.PushOrder(m.ctx)
		if err != nil {
			return doneMsg{err: err}
		}
		failed := 0
		for _, r := range results {
			if r.Status != todo.ReorderOK {
				failed++
			}
		}
		if failed > 0 {
			return doneMsg{status: fmt.Sprintf("%d item(s) out of sync, press r to refresh", failed)}
		}
		return doneMsg{status: "reordered"}
	}
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = browsing
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		if value == "" {
			m.err = fmt.Errorf("title cannot be empty")
			return m, nil
		}
		current, id := m.mode, m.editID
		m.mode = browsing
		m.input.Blur()
		if current == adding {
			return m, func() tea.Msg {
				item, err := m.session.Add(m.ctx, value)
				return doneMsg{status: "added", err: err, focus: item.ID}
			}
		}
		return m, func() tea.Msg {
			_, err := m.session.Rename(m.ctx, id, value)
			return doneMsg{status: "saved", err: err}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) clampCursor() {
	n := m.session.Model().Len()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) View() string {
	var b strings.Builder
	items := m.session.Items()
	done := 0
	for _, it := range items {
		if it.Completed {
			done++
		}
	}
	fmt.Fprintf(&b, "%s  %d/%d done\n\n", titleStyle.Render("Todo List"), done, len(items))
	if len(items) == 0 {
		b.WriteString(statusStyle.Render("nothing here yet, press a to add") + "\n")
	}
	for i, it := range items {
		box := "[ ]"
		title := it.Title
		if it.Completed {
			box = "[x]"
			title = doneStyle.Render(title)
		}
		prefix := "  "
		if i == m.cursor {
			prefix = selectedStyle.Render("> ")
		}
		fmt.Fprintf(&b, "%s%s %s\n", prefix, box, title)
	}
	if m.mode != browsing {
		label := "Add new item"
		if m.mode == editing {
			label = "Edit item"
		}
		b.WriteString("\n" + label + "\n" + m.input.View() + "\n")
	}
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "\n")
	}
	b.WriteString(m.help.View(keys))
	return panelStyle.Render(b.String())
}
