package service

import (
	"errors"
	"fmt"
	"strings"
)

// Task represents a single to-do item.
type Task struct {
	ID        string `json:"_id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// TaskPatch is a partial task update. Nil fields are left untouched by the store.
type TaskPatch struct {
	Text      *string `json:"text,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// TextPatch returns a patch that only sets the text.
func TextPatch(text string) TaskPatch {
	return TaskPatch{Text: &text}
}

// FullPatch returns a patch carrying every mutable field of t.
func FullPatch(t Task) TaskPatch {
	text, completed := t.Text, t.Completed
	return TaskPatch{Text: &text, Completed: &completed}
}

// Apply returns t with the patch fields applied.
func (p TaskPatch) Apply(t Task) Task {
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}

// Empty reports whether the patch sets no field.
func (p TaskPatch) Empty() bool {
	return p.Text == nil && p.Completed == nil
}

// NormalizeText trims surrounding whitespace from task text.
// Returns false if nothing is left.
func NormalizeText(text string) (string, bool) {
	text = strings.TrimSpace(text)
	return text, text != ""
}

// ErrNotFound is returned (possibly wrapped) when a task does not exist in the store.
var ErrNotFound = errors.New("not found")

// ErrInvalidText is returned when a store is asked to persist empty text.
var ErrInvalidText = errors.New("task text required")

// Store operation names used in StoreError.
const (
	OpList   = "list"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// StoreError is the single failure kind of the remote task store:
// network errors, non-success responses and malformed payloads all surface as one.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// WrapStoreError wraps err as a StoreError for op. Returns nil for a nil err
// and leaves an existing StoreError untouched.
func WrapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
