// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"todo/internal/service"
)

// EmptyMessage is shown when the list holds no tasks.
const EmptyMessage = "No tasks yet. Add one above!"

// FormatTask formats a task line.
// Format: "{N:>4}  [x] {TEXT}\n" (4-wide right-aligned number, two spaces, checkbox, text)
func FormatTask(w io.Writer, num int, task service.Task) {
	box := "[ ]"
	if task.Completed {
		box = "[x]"
	}
	fmt.Fprintf(w, "%4d  %s %s\n", num, box, DisplayText(task.Text))
}

// FormatTasks formats every task numbered from 1, or EmptyMessage for an empty list.
func FormatTasks(w io.Writer, tasks []service.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, EmptyMessage)
		return
	}
	for i, t := range tasks {
		FormatTask(w, i+1, t)
	}
}

// UntitledText stands in for task text that is empty or whitespace-only.
const UntitledText = "(untitled)"

// DisplayText returns task text as a single printable line.
// Newlines become spaces; empty or whitespace-only text becomes UntitledText.
func DisplayText(text string) string {
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ReplaceAll(text, "\n", " ")

	if strings.TrimSpace(text) == "" {
		return UntitledText
	}
	return text
}
