// Package client is a typed HTTP client for the task tracker API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Client issues task operations against a task collection URL such as
// http://localhost:3000/tasks.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tunnel     bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithDirectMethods sends updates and deletes as real PUT and DELETE
// requests instead of tunnelling them through POST.
func WithDirectMethods() Option {
	return func(c *Client) {
		c.tunnel = false
	}
}

// New creates a client for the collection at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		tunnel:     true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns all tasks, newest first.
func (c *Client) List(ctx context.Context) ([]Task, error) {
	var wire []wireTask
	if err := c.do(ctx, http.MethodGet, c.baseURL, nil, "Failed to fetch tasks", &wire); err != nil {
		return nil, err
	}

	tasks := make([]Task, 0, len(wire))
	for _, w := range wire {
		t, err := w.toTask()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Get returns one task.
func (c *Client) Get(ctx context.Context, id int64) (Task, error) {
	var wire wireTask
	target := c.baseURL + "?id=" + url.QueryEscape(strconv.FormatInt(id, 10))
	if err := c.do(ctx, http.MethodGet, target, nil, "Failed to fetch task", &wire); err != nil {
		return Task{}, err
	}
	return wire.toTask()
}

// Create creates a task and returns it as stored.
func (c *Client) Create(ctx context.Context, d Draft) (Task, error) {
	body := map[string]any{
		"name":     d.Name,
		"due_date": nil,
	}
	if d.DueDate != nil {
		body["due_date"] = formatTimestamp(*d.DueDate)
	}
	if d.Status != "" {
		body["status"] = string(d.Status)
	}

	var wire wireTask
	if err := c.do(ctx, http.MethodPost, c.baseURL, body, "Failed to create task", &wire); err != nil {
		return Task{}, err
	}
	return wire.toTask()
}

// Update applies changes to a task and returns the merged task.
func (c *Client) Update(ctx context.Context, id int64, ch Changes) (Task, error) {
	body := map[string]any{}
	if ch.Name != nil {
		body["name"] = *ch.Name
	}
	if ch.DueDateSet {
		if ch.DueDate != nil {
			body["due_date"] = formatTimestamp(*ch.DueDate)
		} else {
			body["due_date"] = nil
		}
	}
	if ch.Status != nil {
		body["status"] = string(*ch.Status)
	}

	method, target := c.route(http.MethodPut, id, body)
	var wire wireTask
	if err := c.do(ctx, method, target, body, "Failed to update task", &wire); err != nil {
		return Task{}, err
	}
	return wire.toTask()
}

// Delete soft-deletes a task and returns the server acknowledgement.
func (c *Client) Delete(ctx context.Context, id int64) (string, error) {
	body := map[string]any{}
	method, target := c.route(http.MethodDelete, id, body)

	var ack struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, method, target, body, "Failed to delete task", &ack); err != nil {
		return "", err
	}
	return ack.Message, nil
}

// route returns the method and URL for an id-addressed operation, adding
// the tunnelling fields to body when needed.
func (c *Client) route(method string, id int64, body map[string]any) (string, string) {
	if c.tunnel {
		body["_method"] = method
		body["id"] = id
		return http.MethodPost, c.baseURL
	}
	return method, c.baseURL + "/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, target string, body any, fallback string, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", fallback, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data, fallback)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorMessage extracts the server message from an error body, preferring
// "error" over "message".
func errorMessage(data []byte, fallback string) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return fallback
	}
	if body.Error != "" {
		return body.Error
	}
	if body.Message != "" {
		return body.Message
	}
	return fallback
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
