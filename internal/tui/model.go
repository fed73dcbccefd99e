// Package tui is the interactive task list. It drives a tasks.Controller
// from a bubbletea program; every request runs as a tea.Cmd and at most one
// is in flight.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tasker/internal/output"
	"tasker/internal/service"
	"tasker/internal/session"
	"tasker/internal/tasks"
)

// ErrSessionEnded is returned by Run when the server rejected the session.
var ErrSessionEnded = errors.New("session expired (run: tasker login)")

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeConfirmDelete
)

// viewMsg carries the result of a controller call.
type viewMsg struct {
	view   tasks.View
	status string
	err    error
}

// Model is the bubbletea model for the task list.
type Model struct {
	ctx  context.Context
	ctl  *tasks.Controller
	text *output.Text

	keys  keyMap
	help  help.Model
	input textinput.Model

	view     tasks.View
	cursor   int
	mode     mode
	busy     bool
	status   string
	err      error
	deleteID int64

	loggedOut bool

	cursorStyle lipgloss.Style
	errStyle    lipgloss.Style
	statusStyle lipgloss.Style
}

// New creates a model. Init loads the first page of tasks.
func New(ctx context.Context, ctl *tasks.Controller, text *output.Text) Model {
	ti := textinput.New()
	ti.Placeholder = "Task title"
	ti.CharLimit = 200
	ti.Prompt = "New task: "

	return Model{
		ctx:         ctx,
		ctl:         ctl,
		text:        text,
		keys:        defaultKeys(),
		help:        help.New(),
		input:       ti,
		view:        ctl.View(),
		busy:        true,
		cursorStyle: lipgloss.NewStyle().Bold(true),
		errStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		statusStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// LoggedOut reports whether the program ended because the session was
// rejected.
func (m Model) LoggedOut() bool { return m.loggedOut }

func (m Model) Init() tea.Cmd {
	return m.load()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case viewMsg:
		m.busy = false
		m.view = msg.view
		m.status = msg.status
		m.err = msg.err
		m.clampCursor()
		if m.view.State == session.Anonymous {
			m.loggedOut = true
			return m, tea.Quit
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeAdd:
			return m.updateAdd(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.view.Tasks)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.All):
		return m.filter(service.FilterAll)
	case key.Matches(msg, m.keys.Completed):
		return m.filter(service.FilterCompleted)
	case key.Matches(msg, m.keys.Pending):
		return m.filter(service.FilterPending)
	case key.Matches(msg, m.keys.Reload):
		m.busy = true
		return m, m.load()
	case key.Matches(msg, m.keys.Toggle):
		if task, ok := m.selected(); ok {
			m.busy = true
			return m, m.toggle(task.ID)
		}
	case key.Matches(msg, m.keys.New):
		m.mode = modeAdd
		m.err = nil
		m.input.SetValue("")
		cmd := m.input.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Delete):
		if task, ok := m.selected(); ok {
			m.mode = modeConfirmDelete
			m.deleteID = task.ID
		}
	}
	return m, nil
}

func (m Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		title := m.input.Value()
		if strings.TrimSpace(title) == "" {
			m.err = tasks.ErrTitleRequired
			return m, nil
		}
		m.mode = modeBrowse
		m.input.Blur()
		m.busy = true
		return m, m.create(title)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.deleteID
	m.mode = modeBrowse
	m.deleteID = 0

	if strings.ToLower(msg.String()) == "y" {
		m.busy = true
		return m, m.remove(id)
	}
	m.status = "delete cancelled"
	return m, nil
}

func (m Model) filter(f service.Filter) (tea.Model, tea.Cmd) {
	m.ctl.SetFilter(f)
	m.cursor = 0
	m.busy = true
	return m, m.load()
}

func (m Model) selected() (service.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.view.Tasks) {
		return service.Task{}, false
	}
	return m.view.Tasks[m.cursor], true
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.view.Tasks) {
		m.cursor = len(m.view.Tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) load() tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		v, err := ctl.Load(ctx)
		return viewMsg{view: v, err: err}
	}
}

func (m Model) create(title string) tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		v, err := ctl.Create(ctx, title, "")
		if err != nil {
			return viewMsg{view: v, err: err}
		}
		return viewMsg{view: v, status: "task created"}
	}
}

// toggle fetches the task and saves it with the completed flag flipped.
func (m Model) toggle(id int64) tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		task, err := ctl.OpenEdit(ctx, id)
		if err != nil {
			return viewMsg{view: ctl.View(), err: err}
		}
		v, err := ctl.Update(ctx, id, service.TaskUpdate{
			Title:       task.Title,
			Description: task.Description,
			Completed:   !task.Completed,
		})
		if err != nil {
			return viewMsg{view: v, err: err}
		}
		return viewMsg{view: v, status: "task updated"}
	}
}

func (m Model) remove(id int64) tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		v, _, err := ctl.Delete(ctx, id, func(int64) bool { return true })
		if err != nil {
			return viewMsg{view: v, err: err}
		}
		return viewMsg{view: v, status: "task deleted"}
	}
}

func (m Model) View() string {
	var b strings.Builder

	m.text.Header(&b, m.view)
	b.WriteString("\n")

	if m.view.Empty() {
		m.text.Placeholder(&b)
	}
	for i, task := range m.view.Tasks {
		prefix := "  "
		if i == m.cursor {
			prefix = m.cursorStyle.Render("> ")
		}
		var line strings.Builder
		m.text.Task(&line, task)
		b.WriteString(prefix + line.String())
	}
	b.WriteString("\n")

	switch m.mode {
	case modeAdd:
		b.WriteString(m.input.View() + "\n")
	case modeConfirmDelete:
		fmt.Fprintf(&b, "Are you sure you want to delete task %d? (y/N)\n", m.deleteID)
	}

	switch {
	case m.busy:
		b.WriteString(m.statusStyle.Render("loading...") + "\n")
	case m.err != nil:
		b.WriteString(m.errStyle.Render("error: "+m.err.Error()) + "\n")
	case m.status != "":
		b.WriteString(m.statusStyle.Render(m.status) + "\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// Run starts the interactive program and blocks until it exits.
func Run(ctx context.Context, ctl *tasks.Controller, text *output.Text) error {
	final, err := tea.NewProgram(New(ctx, ctl, text), tea.WithContext(ctx), tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok && m.LoggedOut() {
		return ErrSessionEnded
	}
	return nil
}
