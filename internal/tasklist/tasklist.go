// Package tasklist holds the ordered, in-memory collection of tasks known to the client.
//
// The list is the single source of truth for rendering. Order is the order tasks were
// loaded or inserted; nothing here ever re-sorts it.
package tasklist

import "todo/internal/service"

// List is an ordered sequence of tasks keyed by ID.
// A List is not safe for concurrent use; its owner serializes access.
type List struct {
	tasks []service.Task
}

// New creates an empty list.
func New() *List {
	return &List{}
}

// Load replaces the entire sequence with a copy of tasks.
func (l *List) Load(tasks []service.Task) {
	l.tasks = append([]service.Task(nil), tasks...)
}

// Insert appends task to the end of the list.
// Returns false, leaving the list unchanged, if a task with the same ID exists.
func (l *List) Insert(task service.Task) bool {
	if l.IndexOf(task.ID) >= 0 {
		return false
	}
	l.tasks = append(l.tasks, task)
	return true
}

// Replace swaps the task with the given id for task, keeping its position.
// Returns false if id is not in the list.
func (l *List) Replace(id string, task service.Task) bool {
	i := l.IndexOf(id)
	if i < 0 {
		return false
	}
	l.tasks[i] = task
	return true
}

// Remove deletes the task with the given id, keeping the relative order of the rest.
// Returns false if id is not in the list.
func (l *List) Remove(id string) bool {
	i := l.IndexOf(id)
	if i < 0 {
		return false
	}
	l.tasks = append(l.tasks[:i:i], l.tasks[i+1:]...)
	return true
}

// IndexOf returns the position of id, or -1.
func (l *List) IndexOf(id string) int {
	for i, t := range l.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Get returns the task with the given id.
func (l *List) Get(id string) (service.Task, bool) {
	i := l.IndexOf(id)
	if i < 0 {
		return service.Task{}, false
	}
	return l.tasks[i], true
}

// At returns the task at position i (0-based).
func (l *List) At(i int) (service.Task, bool) {
	if i < 0 || i >= len(l.tasks) {
		return service.Task{}, false
	}
	return l.tasks[i], true
}

// Len returns the number of tasks.
func (l *List) Len() int { return len(l.tasks) }

// Tasks returns a copy of the sequence in rendering order.
func (l *List) Tasks() []service.Task {
	return append([]service.Task(nil), l.tasks...)
}
