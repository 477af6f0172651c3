package task

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// taskAdapter implements TaskPort on top of the task module's request-reply
// services, for modules that receive its ServiceContainer.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a TaskPort backed by container.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

// ListTasks lists active tasks via the list service.
func (a *taskAdapter) ListTasks(ctx context.Context) ([]domain.Task, error) {
	var resp ListTasksResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceList,
		json.Marshal,
		json.Unmarshal,
		&ListTasksRequest{},
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s service call failed: %w", ServiceList, err)
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	if resp.Tasks == nil {
		resp.Tasks = []domain.Task{}
	}
	return resp.Tasks, nil
}

// GetTask fetches one task via the get service.
func (a *taskAdapter) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	var resp TaskResult
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGet,
		json.Marshal,
		json.Unmarshal,
		&GetTaskRequest{ID: id},
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s service call failed: %w", ServiceGet, err)
	}
	return resp.task()
}

// CreateTask creates a task via the create service.
func (a *taskAdapter) CreateTask(ctx context.Context, in domain.CreateInput) (*domain.Task, error) {
	var resp TaskResult
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceCreate,
		json.Marshal,
		json.Unmarshal,
		&CreateTaskRequest{Input: in},
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s service call failed: %w", ServiceCreate, err)
	}
	return resp.task()
}

// UpdateTask patches a task via the update service.
func (a *taskAdapter) UpdateTask(ctx context.Context, id int64, patch domain.Patch) (*domain.Task, error) {
	var resp TaskResult
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceUpdate,
		json.Marshal,
		json.Unmarshal,
		&UpdateTaskRequest{ID: id, Patch: patch},
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s service call failed: %w", ServiceUpdate, err)
	}
	return resp.task()
}

// DeleteTask soft-deletes a task via the delete service.
func (a *taskAdapter) DeleteTask(ctx context.Context, id int64) error {
	var resp DeleteTaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceDelete,
		json.Marshal,
		json.Unmarshal,
		&DeleteTaskRequest{ID: id},
		&resp,
	); err != nil {
		return fmt.Errorf("%s service call failed: %w", ServiceDelete, err)
	}
	return resp.Error.Err()
}

// Health asks the task module to ping its store.
func (a *taskAdapter) Health(ctx context.Context) error {
	var resp HealthResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceHealth,
		json.Marshal,
		json.Unmarshal,
		&HealthRequest{},
		&resp,
	); err != nil {
		return fmt.Errorf("%s service call failed: %w", ServiceHealth, err)
	}
	return resp.Error.Err()
}

func (r TaskResult) task() (*domain.Task, error) {
	if err := r.Error.Err(); err != nil {
		return nil, err
	}
	if r.Task == nil {
		return nil, fmt.Errorf("empty task in service response")
	}
	return r.Task, nil
}
