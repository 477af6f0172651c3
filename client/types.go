package client

import (
	"fmt"
	"time"
)

// Status is the workflow state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Task is a task as returned by the server, with parsed timestamps.
type Task struct {
	ID        int64
	Name      string
	DueDate   *time.Time
	Status    Status
	CreatedAt time.Time
}

// Draft holds the fields of a task to create. Zero Status lets the server
// apply its default.
type Draft struct {
	Name    string
	DueDate *time.Time
	Status  Status
}

// Changes is a partial update. Nil fields are not sent; DueDateSet with a nil
// DueDate clears the due date.
type Changes struct {
	Name       *string
	DueDate    *time.Time
	DueDateSet bool
	Status     *Status
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

type wireTask struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	DueDate   *string `json:"due_date"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
}

// timestampLayouts covers RFC 3339 and the plain SQL DATETIME form.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (w wireTask) toTask() (Task, error) {
	created, err := parseTimestamp(w.CreatedAt)
	if err != nil {
		return Task{}, fmt.Errorf("task %d created_at: %w", w.ID, err)
	}
	t := Task{
		ID:        w.ID,
		Name:      w.Name,
		Status:    Status(w.Status),
		CreatedAt: created,
	}
	if w.DueDate != nil && *w.DueDate != "" {
		due, err := parseTimestamp(*w.DueDate)
		if err != nil {
			return Task{}, fmt.Errorf("task %d due_date: %w", w.ID, err)
		}
		t.DueDate = &due
	}
	return t, nil
}
