package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"todo/internal/output"
)

const (
	dateLayout    = "Monday, Jan 2"
	loadingText   = "Loading tasks..."
	rowHintText   = "e edit  d delete"
	listHelpText  = "j/k move • space toggle • e edit • d delete • a add • q quit"
	inputHelpText = "enter add • esc back"
	editHelpText  = "enter save • esc cancel"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dateStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	doneStyle    = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("8"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	emptyStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("8"))
	containerPad = lipgloss.NewStyle().Padding(1, 2)
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("My Tasks"))
	b.WriteString("\n")
	b.WriteString(dateStyle.Render(m.now().Format(dateLayout)))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.ctrl.Loading():
		b.WriteString(emptyStyle.Render(loadingText))
		b.WriteString("\n")
	case len(m.ctrl.Tasks()) == 0:
		b.WriteString(emptyStyle.Render(output.EmptyMessage))
		b.WriteString("\n")
	default:
		m.renderTasks(&b)
	}

	b.WriteString("\n")
	b.WriteString(hintStyle.Render(m.help()))
	return containerPad.Render(b.String())
}

func (m Model) renderTasks(b *strings.Builder) {
	for i, task := range m.ctrl.Tasks() {
		editing := m.ctrl.Editing(task.ID)
		marker := "  "
		if i == m.cursor && m.mode != modeInput {
			marker = cursorStyle.Render("> ")
		}
		box := "[ ] "
		if task.Completed {
			box = "[x] "
		}

		b.WriteString(marker)
		b.WriteString(box)
		switch {
		case editing:
			// Affordances are hidden while the row is being edited.
			b.WriteString(m.edit.View())
		case task.Completed:
			b.WriteString(doneStyle.Render(output.DisplayText(task.Text)))
		default:
			b.WriteString(output.DisplayText(task.Text))
		}
		if i == m.cursor && m.mode == modeList && !editing {
			b.WriteString("  ")
			b.WriteString(hintStyle.Render(rowHintText))
		}
		b.WriteString("\n")
	}
}

func (m Model) help() string {
	switch m.mode {
	case modeInput:
		return inputHelpText
	case modeEdit:
		return editHelpText
	default:
		return listHelpText
	}
}
