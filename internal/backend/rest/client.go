// Package rest implements service.Service and service.Authenticator against
// the task backend's REST surface.
package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"tasksync/internal/normalize"
	"tasksync/internal/service"
	"tasksync/internal/transport"
)

// Backend paths.
const (
	TasksPath  = "/task"
	LoginPath  = "/auth/login"
	SignupPath = "/auth/signup"
)

// Client implements service.Service using a transport.Resolver.
type Client struct {
	tr *transport.Resolver
}

// New creates a REST client.
func New(tr *transport.Resolver) *Client {
	return &Client{tr: tr}
}

var (
	_ service.Service       = (*Client)(nil)
	_ service.Authenticator = (*Client)(nil)
)

func taskPath(id service.ID, suffix string) string {
	return TasksPath + "/" + url.PathEscape(id.String()) + suffix
}

// ListTasks fetches the list. It is the only task call allowed to fall back
// to the same-origin endpoint.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	resp, err := c.tr.Do(ctx, transport.Request{
		Method:   http.MethodGet,
		Path:     TasksPath,
		Fallback: true,
	})
	if err != nil {
		return nil, err
	}
	return normalize.Tasks(resp.Decode()), nil
}

// CreateTask posts a draft. A response without a task body yields the
// draft itself with a placeholder id and isCompleted 0.
func (c *Client) CreateTask(ctx context.Context, draft service.Draft) (service.Task, error) {
	resp, err := c.tr.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   TasksPath,
		Body:   draft,
	})
	if err != nil {
		return service.Task{}, err
	}
	fallback := service.Task{
		Title:       draft.Title,
		Description: draft.Description,
		IsCompleted: service.Number(0),
	}
	return normalize.Task(resp.Decode(), fallback), nil
}

// UpdateTask patches title and description.
func (c *Client) UpdateTask(ctx context.Context, prev service.Task, draft service.Draft) (service.Task, error) {
	resp, err := c.tr.Do(ctx, transport.Request{
		Method: http.MethodPatch,
		Path:   taskPath(prev.ID, ""),
		Body:   draft,
	})
	if err != nil {
		return service.Task{}, err
	}
	fallback := prev
	fallback.Title = draft.Title
	fallback.Description = draft.Description
	return normalize.Task(resp.Decode(), fallback), nil
}

// ToggleTask patches the done endpoint with an empty object.
func (c *Client) ToggleTask(ctx context.Context, id service.ID) (service.ToggleResult, error) {
	resp, err := c.tr.Do(ctx, transport.Request{
		Method: http.MethodPatch,
		Path:   taskPath(id, "/done"),
		Body:   struct{}{},
	})
	if err != nil {
		return service.ToggleResult{}, err
	}
	done, known := normalize.Completion(resp.Decode())
	return service.ToggleResult{IsCompleted: done, Known: known}, nil
}

// DeleteTask deletes a task. The response body is ignored.
func (c *Client) DeleteTask(ctx context.Context, id service.ID) error {
	_, err := c.tr.Do(ctx, transport.Request{
		Method: http.MethodDelete,
		Path:   taskPath(id, ""),
	})
	return err
}

// Login implements service.Authenticator.
func (c *Client) Login(ctx context.Context, creds service.Credentials) (string, string, error) {
	resp, err := c.tr.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   LoginPath,
		Body:   creds,
	})
	if err != nil {
		return "", "", fmt.Errorf("login: %w", err)
	}
	v := resp.Decode()
	return normalize.Token(v), normalize.Message(v), nil
}

// Signup implements service.Authenticator.
func (c *Client) Signup(ctx context.Context, creds service.Credentials) (string, error) {
	resp, err := c.tr.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   SignupPath,
		Body:   creds,
	})
	if err != nil {
		return "", fmt.Errorf("signup: %w", err)
	}
	return normalize.Message(resp.Decode()), nil
}
