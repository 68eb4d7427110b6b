// Package googletasks implements the service.Service interface on the user's
// default Google Tasks list.
//
// Task text maps to the Google task title; completion maps to status
// "completed" / "needsAction". Credentials are read from the config directory;
// this package never runs an OAuth flow.
package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"todo/internal/config"
	"todo/internal/service"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks fetched per API page.
	PageSize = 100

	// OAuth scope for Google Tasks
	tasksScope = "https://www.googleapis.com/auth/tasks"

	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"
)

// Client implements service.Service using Google Tasks API.
type Client struct {
	svc    *tasks.Service
	listID string
}

// New creates a new Google Tasks client.
// Requires oauth_client.json and token.json to exist in the config directory.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	// Load OAuth client config
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", config.OAuthClientFile, err)
	}

	oauthConfig, err := google.ConfigFromJSON(clientJSON, tasksScope)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.OAuthClientFile, err)
	}

	// Load token
	tokenData, err := os.ReadFile(cfg.TokenPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", config.TokenFile, err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.TokenFile, err)
	}

	// Token source refreshes the access token as needed
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, &token))
	return NewWithHTTPClient(ctx, httpClient)
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &Client{svc: svc, listID: DefaultListID}, nil
}

// ListTasks returns all non-deleted tasks of the default list in API order.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	result := []service.Task{}
	err := c.svc.Tasks.List(c.listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Context(ctx).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, t := range resp.Items {
				result = append(result, fromAPI(t))
			}
			return nil
		})
	if err != nil {
		return nil, service.WrapStoreError(service.OpList, wrapError(err))
	}
	return result, nil
}

// CreateTask creates a new task at the end of the default list.
func (c *Client) CreateTask(ctx context.Context, text string) (service.Task, error) {
	call := c.svc.Tasks.Insert(c.listID, &tasks.Task{Title: text, Status: statusNeedsAction})

	// Google inserts at the top unless told which sibling to follow.
	if last, err := c.lastTaskID(ctx); err != nil {
		return service.Task{}, service.WrapStoreError(service.OpCreate, wrapError(err))
	} else if last != "" {
		call = call.Previous(last)
	}

	created, err := call.Context(ctx).Do()
	if err != nil {
		return service.Task{}, service.WrapStoreError(service.OpCreate, wrapError(err))
	}
	return fromAPI(created), nil
}

// UpdateTask patches title and/or status.
func (c *Client) UpdateTask(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	body := &tasks.Task{}
	if patch.Text != nil {
		body.Title = *patch.Text
		body.ForceSendFields = append(body.ForceSendFields, "Title")
	}
	if patch.Completed != nil {
		if *patch.Completed {
			body.Status = statusCompleted
		} else {
			body.Status = statusNeedsAction
			// Reopening requires clearing the completion timestamp.
			body.NullFields = append(body.NullFields, "Completed")
		}
	}

	updated, err := c.svc.Tasks.Patch(c.listID, id, body).Context(ctx).Do()
	if err != nil {
		return service.Task{}, service.WrapStoreError(service.OpUpdate, wrapError(err))
	}
	return fromAPI(updated), nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	if err := c.svc.Tasks.Delete(c.listID, id).Context(ctx).Do(); err != nil {
		return service.WrapStoreError(service.OpDelete, wrapError(err))
	}
	return nil
}

// lastTaskID returns the ID of the last top-level task, or "" for an empty list.
func (c *Client) lastTaskID(ctx context.Context) (string, error) {
	var last string
	err := c.svc.Tasks.List(c.listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		Context(ctx).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, t := range resp.Items {
				if t.Parent == "" {
					last = t.Id
				}
			}
			return nil
		})
	return last, err
}

func fromAPI(t *tasks.Task) service.Task {
	return service.Task{
		ID:        t.Id,
		Text:      t.Title,
		Completed: t.Status == statusCompleted,
	}
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("token expired or revoked: %w", err)
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", strings.TrimSpace(apiErr.Message), service.ErrNotFound)
		}
	}
	return err
}
