// Package service defines the backend-agnostic interface for the remote task store.
package service

import "context"

// Service defines the operations of the remote task store.
// All persistence goes through this interface.
// The controller and views never import a backend directly.
type Service interface {
	// ListTasks returns every task in store order.
	ListTasks(ctx context.Context) ([]Task, error)

	// CreateTask creates a task with the given text.
	// The returned task carries the store-assigned ID and Completed=false.
	CreateTask(ctx context.Context, text string) (Task, error)

	// UpdateTask applies a partial update and returns the full post-update task.
	// Only the fields set in patch are sent to the store.
	UpdateTask(ctx context.Context, id string, patch TaskPatch) (Task, error)

	// DeleteTask deletes a task by ID.
	DeleteTask(ctx context.Context, id string) error
}
