package task

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StoreConfig selects and locates the task store.
type StoreConfig struct {
	Driver      string
	SQLitePath  string
	DatabaseURL string
	Debug       bool
}

// TaskModule owns the task store and exposes it as request-reply services.
type TaskModule struct {
	cfg     StoreConfig
	logger  types.Logger
	repo    domain.Repository
	service *Service
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*TaskModule)(nil)
	_ mono.ServiceProviderModule = (*TaskModule)(nil)
	_ mono.HealthCheckableModule = (*TaskModule)(nil)
)

// NewModule creates a TaskModule that opens its store on Start.
func NewModule(cfg StoreConfig, logger types.Logger) *TaskModule {
	return &TaskModule{
		cfg:    cfg,
		logger: logger.WithModule("task"),
	}
}

// NewModuleWithRepository creates a TaskModule over an already open repository.
func NewModuleWithRepository(repo domain.Repository, logger types.Logger) *TaskModule {
	return &TaskModule{
		logger:  logger.WithModule("task"),
		repo:    repo,
		service: NewService(repo),
	}
}

// Name returns the module name.
func (m *TaskModule) Name() string {
	return "task"
}

// Service returns the task service, or nil before Start.
func (m *TaskModule) Service() *Service {
	return m.service
}

// Start opens the configured store and builds the service layer.
func (m *TaskModule) Start(ctx context.Context) error {
	if m.service != nil {
		m.logger.Info("Module started with injected repository")
		return nil
	}

	repo, err := openRepository(ctx, m.cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", m.cfg.Driver, err)
	}

	m.repo = repo
	m.service = NewService(repo)

	m.logger.Info("Module started", "driver", m.cfg.Driver)
	return nil
}

// Stop closes the store.
func (m *TaskModule) Stop(_ context.Context) error {
	if m.repo == nil {
		return nil
	}
	m.logger.Info("Closing task store")
	if err := m.repo.Close(); err != nil {
		return fmt.Errorf("failed to close task store: %w", err)
	}
	return nil
}

// Health pings the store.
func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if m.service == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "store not initialized",
		}
	}

	if err := m.service.Health(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("store ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": m.cfg.Driver,
		},
	}
}

// RegisterServices registers the task request-reply services.
func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceList, json.Unmarshal, json.Marshal, m.handleList,
	); err != nil {
		return fmt.Errorf("failed to register list service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGet, json.Unmarshal, json.Marshal, m.handleGet,
	); err != nil {
		return fmt.Errorf("failed to register get service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreate, json.Unmarshal, json.Marshal, m.handleCreate,
	); err != nil {
		return fmt.Errorf("failed to register create service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceUpdate, json.Unmarshal, json.Marshal, m.handleUpdate,
	); err != nil {
		return fmt.Errorf("failed to register update service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceDelete, json.Unmarshal, json.Marshal, m.handleDelete,
	); err != nil {
		return fmt.Errorf("failed to register delete service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceHealth, json.Unmarshal, json.Marshal, m.handleHealth,
	); err != nil {
		return fmt.Errorf("failed to register health service: %w", err)
	}

	m.logger.Info("Registered services", "services", "services.task.{list,get,create,update,delete,health}")
	return nil
}

// Handlers never return a Go error for domain failures; the error travels in
// the response so the caller can tell not-found from validation from store.

func (m *TaskModule) handleList(ctx context.Context, _ ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	tasks, err := m.service.ListTasks(ctx)
	if err != nil {
		m.logFailure("list", err)
		return ListTasksResponse{Error: toServiceError(err)}, nil
	}
	return ListTasksResponse{Tasks: tasks}, nil
}

func (m *TaskModule) handleGet(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskResult, error) {
	t, err := m.service.GetTask(ctx, req.ID)
	return m.result("get", t, err), nil
}

func (m *TaskModule) handleCreate(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResult, error) {
	t, err := m.service.CreateTask(ctx, req.Input)
	return m.result("create", t, err), nil
}

func (m *TaskModule) handleUpdate(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResult, error) {
	t, err := m.service.UpdateTask(ctx, req.ID, req.Patch)
	return m.result("update", t, err), nil
}

func (m *TaskModule) handleDelete(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.service.DeleteTask(ctx, req.ID); err != nil {
		m.logFailure("delete", err)
		return DeleteTaskResponse{Error: toServiceError(err)}, nil
	}
	return DeleteTaskResponse{Deleted: true}, nil
}

func (m *TaskModule) handleHealth(ctx context.Context, _ HealthRequest, _ *mono.Msg) (HealthResponse, error) {
	if err := m.service.Health(ctx); err != nil {
		return HealthResponse{Error: toServiceError(err)}, nil
	}
	return HealthResponse{Healthy: true}, nil
}

func (m *TaskModule) result(op string, t *domain.Task, err error) TaskResult {
	if err != nil {
		m.logFailure(op, err)
		return TaskResult{Error: toServiceError(err)}
	}
	return TaskResult{Task: t}
}

// logFailure logs store and unexpected errors; client errors are not logged.
func (m *TaskModule) logFailure(op string, err error) {
	se := toServiceError(err)
	if se.Kind == KindStore || se.Kind == KindInternal {
		m.logger.WithError(err).Error("Task operation failed", "operation", op, "kind", se.Kind)
	}
}

func openRepository(ctx context.Context, cfg StoreConfig) (domain.Repository, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		repo, err := OpenSQLite(cfg.SQLitePath, cfg.Debug)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case DriverPostgres:
		repo, err := OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}
