package service_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/service"
)

func TestTaskPatch_Apply(t *testing.T) {
	task := service.Task{ID: "1", Text: "Buy milk"}

	got := service.TextPatch("Buy oat milk").Apply(task)
	assert.Equal(t, service.Task{ID: "1", Text: "Buy oat milk"}, got)

	done := true
	got = service.TaskPatch{Completed: &done}.Apply(task)
	assert.Equal(t, service.Task{ID: "1", Text: "Buy milk", Completed: true}, got)

	assert.Equal(t, task, service.TaskPatch{}.Apply(task))
	assert.True(t, service.TaskPatch{}.Empty())
}

func TestFullPatch_CarriesEveryField(t *testing.T) {
	p := service.FullPatch(service.Task{ID: "1", Text: "Walk dog", Completed: true})
	require.NotNil(t, p.Text)
	require.NotNil(t, p.Completed)
	assert.Equal(t, "Walk dog", *p.Text)
	assert.True(t, *p.Completed)
}

func TestNormalizeText(t *testing.T) {
	text, ok := service.NormalizeText("  Walk dog \n")
	assert.True(t, ok)
	assert.Equal(t, "Walk dog", text)

	_, ok = service.NormalizeText(" \t ")
	assert.False(t, ok)
}

func TestWrapStoreError(t *testing.T) {
	assert.NoError(t, service.WrapStoreError(service.OpList, nil))

	err := service.WrapStoreError(service.OpDelete, fmt.Errorf("task 7: %w", service.ErrNotFound))
	var se *service.StoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, service.OpDelete, se.Op)
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Equal(t, "delete: task 7: not found", err.Error())

	// Already wrapped errors keep their original op.
	again := service.WrapStoreError(service.OpUpdate, err)
	require.True(t, errors.As(again, &se))
	assert.Equal(t, service.OpDelete, se.Op)
}
