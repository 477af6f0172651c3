package api

import (
	domain "github.com/example/task-tracker/domain/task"
)

// TaskResponse is the client-facing projection of a task.
type TaskResponse struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	DueDate   *string `json:"due_date"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse acknowledges a successful operation without a payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func toTaskResponse(t *domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:        t.ID,
		Name:      t.Name,
		Status:    string(t.Status),
		CreatedAt: domain.FormatTimestamp(t.CreatedAt),
	}
	if t.DueDate != nil {
		due := domain.FormatTimestamp(*t.DueDate)
		resp.DueDate = &due
	}
	return resp
}

func toTaskResponses(tasks []domain.Task) []TaskResponse {
	out := make([]TaskResponse, len(tasks))
	for i := range tasks {
		out[i] = toTaskResponse(&tasks[i])
	}
	return out
}
