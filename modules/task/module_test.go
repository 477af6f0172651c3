package task

import (
	"context"
	"errors"
	"testing"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/go-monolith/mono/pkg/types"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}
func (m *mockLogger) With(_ ...any) types.Logger {
	return m
}
func (m *mockLogger) WithModule(_ string) types.Logger {
	return m
}
func (m *mockLogger) WithError(_ error) types.Logger {
	return m
}

func newTestModule(t *testing.T) (*TaskModule, *mockRepository) {
	t.Helper()

	repo := newMockRepository()
	m := NewModuleWithRepository(repo, &mockLogger{})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return m, repo
}

func TestTaskModule_Name(t *testing.T) {
	m := NewModule(StoreConfig{Driver: DriverSQLite, SQLitePath: ":memory:"}, &mockLogger{})
	if m.Name() != "task" {
		t.Errorf("expected name %q, got %q", "task", m.Name())
	}
}

func TestTaskModule_StartSQLite(t *testing.T) {
	m := NewModule(StoreConfig{Driver: DriverSQLite, SQLitePath: ":memory:"}, &mockLogger{})
	ctx := context.Background()

	if health := m.Health(ctx); health.Healthy {
		t.Error("expected unhealthy before Start")
	}
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer m.Stop(ctx)

	health := m.Health(ctx)
	if !health.Healthy {
		t.Errorf("expected healthy module, got %q", health.Message)
	}
	if m.Service() == nil {
		t.Error("expected service after Start")
	}
}

func TestTaskModule_StartUnknownDriver(t *testing.T) {
	m := NewModule(StoreConfig{Driver: "mysql"}, &mockLogger{})
	if err := m.Start(context.Background()); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestTaskModule_Handlers(t *testing.T) {
	m, _ := newTestModule(t)
	ctx := context.Background()

	created, err := m.handleCreate(ctx, CreateTaskRequest{Input: domain.CreateInput{Name: "Buy milk"}}, nil)
	if err != nil || created.Error != nil {
		t.Fatalf("handleCreate() = %+v, %v", created.Error, err)
	}
	id := created.Task.ID

	invalid, _ := m.handleCreate(ctx, CreateTaskRequest{}, nil)
	if invalid.Error == nil || invalid.Error.Kind != KindValidation {
		t.Errorf("expected validation error, got %+v", invalid.Error)
	}

	got, _ := m.handleGet(ctx, GetTaskRequest{ID: id}, nil)
	if got.Error != nil || got.Task.Name != "Buy milk" {
		t.Errorf("handleGet() = %+v", got)
	}

	updated, _ := m.handleUpdate(ctx, UpdateTaskRequest{ID: id, Patch: domain.Patch{}.SetStatus(domain.StatusCompleted)}, nil)
	if updated.Error != nil || updated.Task.Status != domain.StatusCompleted {
		t.Errorf("handleUpdate() = %+v", updated)
	}

	list, _ := m.handleList(ctx, ListTasksRequest{}, nil)
	if list.Error != nil || len(list.Tasks) != 1 {
		t.Errorf("handleList() = %+v", list)
	}

	deleted, _ := m.handleDelete(ctx, DeleteTaskRequest{ID: id}, nil)
	if !deleted.Deleted || deleted.Error != nil {
		t.Errorf("handleDelete() = %+v", deleted)
	}

	again, _ := m.handleDelete(ctx, DeleteTaskRequest{ID: id}, nil)
	if again.Deleted || again.Error == nil || again.Error.Kind != KindNotFound {
		t.Errorf("second handleDelete() = %+v", again)
	}
}

func TestTaskModule_HealthService(t *testing.T) {
	m, repo := newTestModule(t)
	ctx := context.Background()

	resp, _ := m.handleHealth(ctx, HealthRequest{}, nil)
	if !resp.Healthy {
		t.Errorf("expected healthy response, got %+v", resp)
	}

	repo.pingErr = &domain.StoreError{Op: "ping", Err: errors.New("database is closed")}
	resp, _ = m.handleHealth(ctx, HealthRequest{}, nil)
	if resp.Healthy || resp.Error == nil || resp.Error.Kind != KindStore {
		t.Errorf("expected store failure, got %+v", resp)
	}
	if status := m.Health(ctx); status.Healthy {
		t.Error("expected module health to report the ping failure")
	}
}

func TestServiceError_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		kind  string
		check func(error) bool
	}{
		{"not found", domain.ErrNotFound, KindNotFound, func(err error) bool { return errors.Is(err, domain.ErrNotFound) }},
		{"validation", domain.ErrNoFields, KindValidation, func(err error) bool {
			return errors.Is(err, domain.ErrValidation) && err.Error() == domain.ErrNoFields.Error()
		}},
		{"store", &domain.StoreError{Op: "list", Err: errors.New("boom")}, KindStore, domain.IsStoreError},
		{"internal", errors.New("unexpected"), KindInternal, func(err error) bool {
			return err != nil && !domain.IsStoreError(err) && !errors.Is(err, domain.ErrValidation)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := toServiceError(tt.err)
			if se.Kind != tt.kind {
				t.Fatalf("expected kind %q, got %q", tt.kind, se.Kind)
			}
			if !tt.check(se.Err()) {
				t.Errorf("rebuilt error %v does not match %v", se.Err(), tt.err)
			}
		})
	}

	var nilErr *ServiceError
	if nilErr.Err() != nil {
		t.Error("nil ServiceError must rebuild to nil")
	}
}
