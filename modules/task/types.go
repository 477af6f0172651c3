package task

import (
	"context"
	"errors"

	domain "github.com/example/task-tracker/domain/task"
)

// Service names registered by TaskModule.
const (
	ServiceList   = "list"
	ServiceGet    = "get"
	ServiceCreate = "create"
	ServiceUpdate = "update"
	ServiceDelete = "delete"
	ServiceHealth = "health"
)

// TaskPort is the contract driving adapters (the HTTP API) use to reach the
// task store. Both *Service and the ServiceContainer adapter implement it.
type TaskPort interface {
	ListTasks(ctx context.Context) ([]domain.Task, error)
	GetTask(ctx context.Context, id int64) (*domain.Task, error)
	CreateTask(ctx context.Context, in domain.CreateInput) (*domain.Task, error)
	UpdateTask(ctx context.Context, id int64, patch domain.Patch) (*domain.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	Health(ctx context.Context) error
}

// ListTasksRequest is the request for the list service.
type ListTasksRequest struct{}

// ListTasksResponse is the response of the list service.
type ListTasksResponse struct {
	Tasks []domain.Task `json:"tasks"`
	Error *ServiceError `json:"error,omitempty"`
}

// GetTaskRequest is the request for the get service.
type GetTaskRequest struct {
	ID int64 `json:"id"`
}

// CreateTaskRequest is the request for the create service.
type CreateTaskRequest struct {
	Input domain.CreateInput `json:"input"`
}

// UpdateTaskRequest is the request for the update service.
type UpdateTaskRequest struct {
	ID    int64        `json:"id"`
	Patch domain.Patch `json:"patch"`
}

// DeleteTaskRequest is the request for the delete service.
type DeleteTaskRequest struct {
	ID int64 `json:"id"`
}

// TaskResult is the response of the get, create and update services.
type TaskResult struct {
	Task  *domain.Task  `json:"task,omitempty"`
	Error *ServiceError `json:"error,omitempty"`
}

// DeleteTaskResponse is the response of the delete service.
type DeleteTaskResponse struct {
	Deleted bool          `json:"deleted"`
	Error   *ServiceError `json:"error,omitempty"`
}

// Error kinds carried in ServiceError.
const (
	KindValidation = "validation"
	KindNotFound   = "not_found"
	KindStore      = "store"
	KindInternal   = "internal"
)

// ServiceError carries a domain error across the request-reply boundary.
type ServiceError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// toServiceError classifies err so it can be rebuilt on the calling side.
func toServiceError(err error) *ServiceError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return &ServiceError{Kind: KindNotFound, Message: err.Error()}
	case errors.Is(err, domain.ErrValidation):
		return &ServiceError{Kind: KindValidation, Message: err.Error()}
	case domain.IsStoreError(err):
		return &ServiceError{Kind: KindStore, Message: err.Error()}
	default:
		return &ServiceError{Kind: KindInternal, Message: err.Error()}
	}
}

// Err rebuilds the domain error described by e.
func (e *ServiceError) Err() error {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case KindNotFound:
		return domain.ErrNotFound
	case KindValidation:
		return domain.NewValidationError(e.Message)
	case KindStore:
		return &domain.StoreError{Op: "remote", Err: errors.New(e.Message)}
	default:
		return errors.New(e.Message)
	}
}

// HealthRequest is the request for the health service.
type HealthRequest struct{}

// HealthResponse reports whether the store answered a ping.
type HealthResponse struct {
	Healthy bool          `json:"healthy"`
	Error   *ServiceError `json:"error,omitempty"`
}
