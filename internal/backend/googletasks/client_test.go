package googletasks_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"todo/internal/backend/googletasks"
	"todo/internal/service"
)

type apiRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]interface{}
}

// fakeAPI answers Tasks API calls from canned handlers keyed by method.
type fakeAPI struct {
	mu       sync.Mutex
	requests []apiRequest
	items    []map[string]interface{}
	status   int
	errBody  string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	req := apiRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &req.Body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	status, errBody, items := f.status, f.errBody, f.items
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, errBody)
		return
	}

	switch r.Method {
	case http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"items": items})
	case http.MethodPost:
		resp := map[string]interface{}{"id": "new1", "status": "needsAction"}
		for k, v := range req.Body {
			resp[k] = v
		}
		_ = json.NewEncoder(w).Encode(resp)
	case http.MethodPatch:
		resp := map[string]interface{}{"id": "t1", "title": "Buy milk", "status": "needsAction"}
		for k, v := range req.Body {
			resp[k] = v
		}
		_ = json.NewEncoder(w).Encode(resp)
	case http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (f *fakeAPI) recorded() []apiRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiRequest(nil), f.requests...)
}

func newClient(t *testing.T, api *fakeAPI) *googletasks.Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := googletasks.NewWithHTTPClient(context.Background(), srv.Client(), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	return c
}

func TestListTasks_MapsStatus(t *testing.T) {
	api := &fakeAPI{items: []map[string]interface{}{
		{"id": "t1", "title": "Buy milk", "status": "needsAction"},
		{"id": "t2", "title": "Walk dog", "status": "completed"},
	}}
	c := newClient(t, api)

	tasks, err := c.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []service.Task{
		{ID: "t1", Text: "Buy milk"},
		{ID: "t2", Text: "Walk dog", Completed: true},
	}, tasks)

	reqs := api.recorded()
	require.Len(t, reqs, 1)
	assert.True(t, strings.HasSuffix(reqs[0].Path, "/lists/@default/tasks"), reqs[0].Path)
	assert.Contains(t, reqs[0].Query, "showCompleted=true")
}

func TestCreateTask_AppendsAfterLastTask(t *testing.T) {
	api := &fakeAPI{items: []map[string]interface{}{
		{"id": "t1", "title": "Buy milk", "status": "needsAction"},
		{"id": "t1a", "title": "subtask", "parent": "t1", "status": "needsAction"},
	}}
	c := newClient(t, api)

	task, err := c.CreateTask(context.Background(), "Walk dog")
	require.NoError(t, err)
	assert.Equal(t, service.Task{ID: "new1", Text: "Walk dog"}, task)

	reqs := api.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodPost, reqs[1].Method)
	assert.Contains(t, reqs[1].Query, "previous=t1")
	assert.Equal(t, "Walk dog", reqs[1].Body["title"])
}

func TestCreateTask_EmptyListHasNoPrevious(t *testing.T) {
	api := &fakeAPI{}
	c := newClient(t, api)

	_, err := c.CreateTask(context.Background(), "First")
	require.NoError(t, err)

	reqs := api.recorded()
	require.Len(t, reqs, 2)
	assert.NotContains(t, reqs[1].Query, "previous=")
}

func TestUpdateTask_Complete(t *testing.T) {
	api := &fakeAPI{}
	c := newClient(t, api)

	done := true
	task, err := c.UpdateTask(context.Background(), "t1", service.TaskPatch{Completed: &done})
	require.NoError(t, err)
	assert.True(t, task.Completed)

	reqs := api.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPatch, reqs[0].Method)
	assert.True(t, strings.HasSuffix(reqs[0].Path, "/tasks/t1"), reqs[0].Path)
	assert.Equal(t, "completed", reqs[0].Body["status"])
	_, hasTitle := reqs[0].Body["title"]
	assert.False(t, hasTitle)
}

func TestUpdateTask_ReopenClearsCompleted(t *testing.T) {
	api := &fakeAPI{}
	c := newClient(t, api)

	_, err := c.UpdateTask(context.Background(), "t1", service.FullPatch(service.Task{Text: "Buy milk"}))
	require.NoError(t, err)

	body := api.recorded()[0].Body
	assert.Equal(t, "needsAction", body["status"])
	assert.Equal(t, "Buy milk", body["title"])
	completed, ok := body["completed"]
	assert.True(t, ok)
	assert.Nil(t, completed)
}

func TestDeleteTask(t *testing.T) {
	api := &fakeAPI{}
	c := newClient(t, api)

	require.NoError(t, c.DeleteTask(context.Background(), "t1"))
	reqs := api.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodDelete, reqs[0].Method)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		notFound bool
		contains string
	}{
		{name: "not found", status: http.StatusNotFound, notFound: true, contains: "Task not found"},
		{name: "unauthorized", status: http.StatusUnauthorized, contains: "token expired or revoked"},
		{name: "server error", status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{status: tt.status, errBody: `{"error":{"message":"Task not found"}}`}
			c := newClient(t, api)

			err := c.DeleteTask(context.Background(), "t1")
			require.Error(t, err)

			var se *service.StoreError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, service.OpDelete, se.Op)
			assert.Equal(t, tt.notFound, errors.Is(err, service.ErrNotFound))
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}
