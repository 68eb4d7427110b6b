// Package rest implements service.Service against a JSON task API.
//
// Wire format:
//
//	GET    <base>        -> [Task]
//	POST   <base>        {"text"} -> Task
//	PUT    <base>/<id>   {"text"?, "completed"?} -> Task
//	DELETE <base>/<id>   -> 2xx
//
// Task JSON is {"_id", "text", "completed"}. Error bodies are {"error": "..."}.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"todo/internal/service"
)

// RequestIDHeader carries a per-call correlation id.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 4 << 10

// Client implements service.Service over HTTP.
type Client struct {
	base *url.URL
	http *http.Client
	log  logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the debug logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the task collection at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid api url: missing host")
	}

	c := &Client{
		base: u,
		http: http.DefaultClient,
		log:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListTasks returns every task in API order.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	var tasks []service.Task
	if err := c.do(ctx, http.MethodGet, c.base.String(), nil, &tasks); err != nil {
		return nil, service.WrapStoreError(service.OpList, err)
	}
	for _, t := range tasks {
		if t.ID == "" {
			return nil, service.WrapStoreError(service.OpList, errors.New("malformed response: task without id"))
		}
	}
	if tasks == nil {
		tasks = []service.Task{}
	}
	return tasks, nil
}

// CreateTask creates a new task.
func (c *Client) CreateTask(ctx context.Context, text string) (service.Task, error) {
	body := struct {
		Text string `json:"text"`
	}{text}

	var task service.Task
	if err := c.do(ctx, http.MethodPost, c.base.String(), body, &task); err != nil {
		return service.Task{}, service.WrapStoreError(service.OpCreate, err)
	}
	if task.ID == "" {
		return service.Task{}, service.WrapStoreError(service.OpCreate, errors.New("malformed response: task without id"))
	}
	return task, nil
}

// UpdateTask sends a partial update.
func (c *Client) UpdateTask(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	var task service.Task
	if err := c.do(ctx, http.MethodPut, c.taskURL(id), patch, &task); err != nil {
		return service.Task{}, service.WrapStoreError(service.OpUpdate, err)
	}
	if task.ID == "" {
		return service.Task{}, service.WrapStoreError(service.OpUpdate, errors.New("malformed response: task without id"))
	}
	return task, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, c.taskURL(id), nil, nil); err != nil {
		return service.WrapStoreError(service.OpDelete, err)
	}
	return nil
}

func (c *Client) taskURL(id string) string {
	return c.base.JoinPath(id).String()
}

// do sends one request and decodes a 2xx body into out (if non-nil).
func (c *Client) do(ctx context.Context, method, target string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.log.WithFields(logrus.Fields{"method": method, "url": target, "request_id": reqID})
	log.Debug("store request")

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapError(err)
	}
	defer resp.Body.Close()

	log.WithField("status", resp.StatusCode).Debug("store response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	msg := strings.TrimSpace(string(data))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", msg, service.ErrNotFound)
	}
	return fmt.Errorf("status %d: %s", resp.StatusCode, msg)
}

// wrapError wraps transport errors with user-friendly messages.
func wrapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}
	return err
}
