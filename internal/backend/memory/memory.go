// Package memory implements service.Service in process memory.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"todo/internal/service"
)

// Store keeps tasks in insertion order. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	tasks []service.Task
}

// New creates an empty store.
func New() *Store {
	return &Store{tasks: []service.Task{}}
}

// ListTasks implements service.Service.
func (s *Store) ListTasks(ctx context.Context) ([]service.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]service.Task{}, s.tasks...), nil
}

// CreateTask implements service.Service.
func (s *Store) CreateTask(ctx context.Context, text string) (service.Task, error) {
	text, ok := service.NormalizeText(text)
	if !ok {
		return service.Task{}, service.WrapStoreError(service.OpCreate, service.ErrInvalidText)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	task := service.Task{ID: uuid.NewString(), Text: text}
	s.tasks = append(s.tasks, task)
	return task, nil
}

// UpdateTask implements service.Service.
func (s *Store) UpdateTask(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	if patch.Text != nil {
		text, ok := service.NormalizeText(*patch.Text)
		if !ok {
			return service.Task{}, service.WrapStoreError(service.OpUpdate, service.ErrInvalidText)
		}
		patch.Text = &text
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks[i] = patch.Apply(t)
			return s.tasks[i], nil
		}
	}
	return service.Task{}, service.WrapStoreError(service.OpUpdate, fmt.Errorf("task %s: %w", id, service.ErrNotFound))
}

// DeleteTask implements service.Service.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return nil
		}
	}
	return service.WrapStoreError(service.OpDelete, fmt.Errorf("task %s: %w", id, service.ErrNotFound))
}
