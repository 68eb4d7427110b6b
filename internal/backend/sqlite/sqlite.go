// Package sqlite implements service.Service on a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"todo/internal/service"
)

// Store persists tasks in a single table. Order is insertion order (rowid).
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite has a single writer and :memory: databases are per connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL CHECK (trim(text) <> ''),
			completed INTEGER NOT NULL DEFAULT 0
		);
	`)
	return err
}

// ListTasks implements service.Service.
func (s *Store) ListTasks(ctx context.Context) ([]service.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			id,
			text,
			completed
		FROM tasks
		ORDER BY rowid ASC`,
	)
	if err != nil {
		return nil, service.WrapStoreError(service.OpList, err)
	}
	defer rows.Close()

	tasks := []service.Task{}
	for rows.Next() {
		var t service.Task
		if err := rows.Scan(&t.ID, &t.Text, &t.Completed); err != nil {
			return nil, service.WrapStoreError(service.OpList, err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, service.WrapStoreError(service.OpList, err)
	}
	return tasks, nil
}

// CreateTask implements service.Service.
func (s *Store) CreateTask(ctx context.Context, text string) (service.Task, error) {
	text, ok := service.NormalizeText(text)
	if !ok {
		return service.Task{}, service.WrapStoreError(service.OpCreate, service.ErrInvalidText)
	}

	task := service.Task{ID: uuid.NewString(), Text: text}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, text, completed) VALUES (?, ?, 0)`,
		task.ID, task.Text,
	); err != nil {
		return service.Task{}, service.WrapStoreError(service.OpCreate, err)
	}
	return task, nil
}

// UpdateTask implements service.Service.
func (s *Store) UpdateTask(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	var (
		sets []string
		args []interface{}
	)
	if patch.Text != nil {
		text, ok := service.NormalizeText(*patch.Text)
		if !ok {
			return service.Task{}, service.WrapStoreError(service.OpUpdate, service.ErrInvalidText)
		}
		sets = append(sets, "text = ?")
		args = append(args, text)
	}
	if patch.Completed != nil {
		sets = append(sets, "completed = ?")
		args = append(args, *patch.Completed)
	}

	if !patch.Empty() {
		args = append(args, id)
		res, err := s.db.ExecContext(ctx,
			`UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
			args...,
		)
		if err != nil {
			return service.Task{}, service.WrapStoreError(service.OpUpdate, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return service.Task{}, service.WrapStoreError(service.OpUpdate, fmt.Errorf("task %s: %w", id, service.ErrNotFound))
		}
	}

	task, err := s.get(ctx, id)
	if err != nil {
		return service.Task{}, service.WrapStoreError(service.OpUpdate, err)
	}
	return task, nil
}

// DeleteTask implements service.Service.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return service.WrapStoreError(service.OpDelete, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return service.WrapStoreError(service.OpDelete, fmt.Errorf("task %s: %w", id, service.ErrNotFound))
	}
	return nil
}

func (s *Store) get(ctx context.Context, id string) (service.Task, error) {
	var t service.Task
	err := s.db.QueryRowContext(ctx,
		`SELECT id, text, completed FROM tasks WHERE id = ?`, id,
	).Scan(&t.ID, &t.Text, &t.Completed)
	if errors.Is(err, sql.ErrNoRows) {
		return service.Task{}, fmt.Errorf("task %s: %w", id, service.ErrNotFound)
	}
	return t, err
}
