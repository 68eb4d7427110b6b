// Package tui is the interactive terminal view of the task list.
//
// The Model never mutates tasks itself. Gestures become controller Calls that
// run as tea.Cmds off the event loop; their Results come back as messages and
// are applied on the loop. Store failures are logged by the controller and
// never shown here.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"todo/internal/coordinator"
	"todo/internal/service"
)

type mode int

const (
	modeList mode = iota
	modeInput
	modeEdit
)

// resultMsg carries a finished store call back to the event loop.
type resultMsg coordinator.Result

// Model is the bubbletea model for the task list.
type Model struct {
	ctx    context.Context
	ctrl   *coordinator.Controller
	input  textinput.Model
	edit   textinput.Model
	mode   mode
	cursor int
	now    func() time.Time
}

// New creates a Model over ctrl. ctx bounds every store call it starts.
func New(ctx context.Context, ctrl *coordinator.Controller) Model {
	input := textinput.New()
	input.Placeholder = "Add a new task..."
	input.Prompt = "+ "
	input.CharLimit = 256
	input.Width = 50
	input.Cursor.SetMode(cursor.CursorStatic)

	edit := textinput.New()
	edit.Prompt = ""
	edit.CharLimit = 256
	edit.Width = 50
	edit.Cursor.SetMode(cursor.CursorStatic)

	return Model{
		ctx:   ctx,
		ctrl:  ctrl,
		input: input,
		edit:  edit,
		mode:  modeList,
		now:   time.Now,
	}
}

// Run starts the interactive program and blocks until the user quits or ctx is done.
func Run(ctx context.Context, ctrl *coordinator.Controller, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	_, err := tea.NewProgram(New(ctx, ctrl), opts...).Run()
	if err != nil && ctx.Err() != nil {
		// Interrupted by signal.
		return nil
	}
	return err
}

// Init starts the initial fetch.
func (m Model) Init() tea.Cmd {
	return m.run(m.ctrl.PrepareFetch())
}

func (m Model) run(call coordinator.Call) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return resultMsg(call(ctx))
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		return m.applyResult(coordinator.Result(msg)), nil
	case tea.WindowSizeMsg:
		if w := msg.Width - 10; w > 10 {
			m.input.Width = w
			m.edit.Width = w
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeInput:
			return m.updateInputMode(msg)
		case modeEdit:
			return m.updateEditMode(msg)
		default:
			return m.updateListMode(msg)
		}
	}
	return m, nil
}

func (m Model) applyResult(r coordinator.Result) Model {
	// Errors are already logged by the controller.
	_ = m.ctrl.Apply(r)

	if r.Op == service.OpCreate && r.Err == nil {
		m.input.SetValue(m.ctrl.Input())
	}
	if m.mode == modeEdit {
		if _, active := m.ctrl.EditSession(); !active {
			m.mode = modeList
			m.edit.Blur()
		}
	}
	m.cursor = clampCursor(m.cursor, len(m.ctrl.Tasks()))
	return m
}

func (m Model) updateListMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tasks := m.ctrl.Tasks()

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		m.cursor = clampCursor(m.cursor-1, len(tasks))
	case "down", "j":
		m.cursor = clampCursor(m.cursor+1, len(tasks))
	case "a", "i":
		m.mode = modeInput
		cmd := m.input.Focus()
		return m, cmd
	case " ", "x":
		if task, ok := m.selected(); ok {
			if call, ok := m.ctrl.PrepareToggle(task.ID); ok {
				return m, m.run(call)
			}
		}
	case "d":
		if task, ok := m.selected(); ok {
			return m, m.run(m.ctrl.PrepareDelete(task.ID))
		}
	case "e":
		if task, ok := m.selected(); ok && m.ctrl.StartEdit(task.ID) {
			m.mode = modeEdit
			m.edit.SetValue(task.Text)
			m.edit.CursorEnd()
			cmd := m.edit.Focus()
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) updateInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.input.Blur()
		return m, nil
	case "enter":
		m.ctrl.SetInput(m.input.Value())
		if call, ok := m.ctrl.PrepareAdd(); ok {
			return m, m.run(call)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.ctrl.SetInput(m.input.Value())
	return m, cmd
}

func (m Model) updateEditMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.ctrl.CancelEdit()
		m.mode = modeList
		m.edit.Blur()
		return m, nil
	case "enter":
		// A blank draft keeps the session open and sends nothing.
		if call, ok := m.ctrl.PrepareSave(); ok {
			return m, m.run(call)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.edit, cmd = m.edit.Update(msg)
	m.ctrl.SetDraft(m.edit.Value())
	return m, cmd
}

func (m Model) selected() (service.Task, bool) {
	return m.ctrl.TaskAt(m.cursor)
}

func clampCursor(cursor, n int) int {
	if n == 0 || cursor < 0 {
		return 0
	}
	if cursor >= n {
		return n - 1
	}
	return cursor
}
