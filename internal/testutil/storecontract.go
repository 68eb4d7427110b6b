package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/service"
)

// RunStoreContract checks the behaviour every service.Service backend must share.
// newStore must return an empty store.
func RunStoreContract(t *testing.T, newStore func(t *testing.T) service.Service) {
	ctx := context.Background()

	t.Run("EmptyList", func(t *testing.T) {
		s := newStore(t)
		tasks, err := s.ListTasks(ctx)
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("CreateAssignsIDAndKeepsOrder", func(t *testing.T) {
		s := newStore(t)
		a, err := s.CreateTask(ctx, "Buy milk")
		require.NoError(t, err)
		b, err := s.CreateTask(ctx, "Walk dog")
		require.NoError(t, err)

		assert.NotEmpty(t, a.ID)
		assert.NotEqual(t, a.ID, b.ID)
		assert.False(t, a.Completed)
		assert.Equal(t, "Buy milk", a.Text)

		tasks, err := s.ListTasks(ctx)
		require.NoError(t, err)
		assert.Equal(t, []service.Task{a, b}, tasks)
	})

	t.Run("UpdateIsPartial", func(t *testing.T) {
		s := newStore(t)
		a, err := s.CreateTask(ctx, "Buy milk")
		require.NoError(t, err)

		done := true
		got, err := s.UpdateTask(ctx, a.ID, service.TaskPatch{Completed: &done})
		require.NoError(t, err)
		assert.Equal(t, service.Task{ID: a.ID, Text: "Buy milk", Completed: true}, got)

		got, err = s.UpdateTask(ctx, a.ID, service.TextPatch("Buy oat milk"))
		require.NoError(t, err)
		assert.Equal(t, service.Task{ID: a.ID, Text: "Buy oat milk", Completed: true}, got)

		got, err = s.UpdateTask(ctx, a.ID, service.FullPatch(service.Task{Text: "Buy oat milk", Completed: false}))
		require.NoError(t, err)
		assert.False(t, got.Completed)

		tasks, err := s.ListTasks(ctx)
		require.NoError(t, err)
		assert.Equal(t, []service.Task{got}, tasks)
	})

	t.Run("UpdateUnknownIsNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.UpdateTask(ctx, "missing", service.TextPatch("x"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, service.ErrNotFound), "got %v", err)
	})

	t.Run("BlankTextRejected", func(t *testing.T) {
		s := newStore(t)
		_, err := s.CreateTask(ctx, "   ")
		require.Error(t, err)

		a, err := s.CreateTask(ctx, "Buy milk")
		require.NoError(t, err)
		_, err = s.UpdateTask(ctx, a.ID, service.TextPatch(" \t"))
		require.Error(t, err)

		tasks, err := s.ListTasks(ctx)
		require.NoError(t, err)
		assert.Equal(t, []service.Task{a}, tasks)
	})

	t.Run("DeleteKeepsOrderOfRest", func(t *testing.T) {
		s := newStore(t)
		a, _ := s.CreateTask(ctx, "one")
		b, _ := s.CreateTask(ctx, "two")
		c, _ := s.CreateTask(ctx, "three")

		require.NoError(t, s.DeleteTask(ctx, b.ID))
		tasks, err := s.ListTasks(ctx)
		require.NoError(t, err)
		assert.Equal(t, []service.Task{a, c}, tasks)

		err = s.DeleteTask(ctx, b.ID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, service.ErrNotFound), "got %v", err)
	})
}
