package task

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/example/task-tracker/domain/task"
)

// setupTestRepository creates a repository over an in-memory SQLite database.
func setupTestRepository(t *testing.T) *GormRepository {
	t.Helper()

	repo, err := OpenSQLite(":memory:", false)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func createTestTask(t *testing.T, repo *GormRepository, name string) *domain.Task {
	t.Helper()

	task := &domain.Task{Name: name, Status: domain.StatusPending}
	if err := repo.Create(context.Background(), task); err != nil {
		t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

func TestGormRepository_Create(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	start := time.Now()

	task := &domain.Task{Name: "Buy milk", Status: domain.StatusPending}
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if task.ID <= 0 {
		t.Errorf("expected positive id, got %d", task.ID)
	}
	if task.CreatedAt.Before(start) {
		t.Errorf("created_at %v is before request start %v", task.CreatedAt, start)
	}
	if !task.IsActive {
		t.Error("expected new task to be active")
	}

	found, err := repo.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found.Name != "Buy milk" || found.Status != domain.StatusPending || found.DueDate != nil {
		t.Errorf("unexpected stored task %+v", found)
	}
	if !found.CreatedAt.Equal(task.CreatedAt) {
		t.Errorf("created_at changed on read: %v != %v", found.CreatedAt, task.CreatedAt)
	}
}

func TestGormRepository_CreateIDsNotReused(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	first := createTestTask(t, repo, "first")
	if err := repo.Deactivate(ctx, first.ID); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	second := createTestTask(t, repo, "second")

	if second.ID <= first.ID {
		t.Errorf("expected id greater than %d, got %d", first.ID, second.ID)
	}
}

func TestGormRepository_CheckConstraint(t *testing.T) {
	repo := setupTestRepository(t)

	err := repo.Create(context.Background(), &domain.Task{Name: "bad", Status: "archived"})
	if err == nil {
		t.Fatal("expected the store to reject an unknown status")
	}
	if !domain.IsStoreError(err) {
		t.Errorf("expected store error, got %v", err)
	}
}

func TestGormRepository_List(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	a := createTestTask(t, repo, "A")
	b := createTestTask(t, repo, "B")
	c := createTestTask(t, repo, "C")

	if err := repo.Deactivate(ctx, b.ID); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}

	tasks, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(tasks) != 2 {
		t.Fatalf("expected 2 active tasks, got %d", len(tasks))
	}
	if tasks[0].ID != c.ID || tasks[1].ID != a.ID {
		t.Errorf("expected order [%d %d], got [%d %d]", c.ID, a.ID, tasks[0].ID, tasks[1].ID)
	}
}

func TestGormRepository_ListOrdersTiesByID(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for _, name := range []string{"one", "two"} {
		task := &domain.Task{Name: name, Status: domain.StatusPending, CreatedAt: at}
		if err := repo.Create(ctx, task); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tasks, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(tasks) != 2 || tasks[0].Name != "two" {
		t.Errorf("expected newest id first on equal created_at, got %+v", tasks)
	}
}

func TestGormRepository_Get(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	task := createTestTask(t, repo, "get me")

	tests := []struct {
		name    string
		id      int64
		wantErr error
	}{
		{"existing task", task.ID, nil},
		{"unknown id", task.ID + 100, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Get(ctx, tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Get() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && got.Name != "get me" {
				t.Errorf("expected name %q, got %q", "get me", got.Name)
			}
		})
	}
}

func TestGormRepository_Update(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	due := time.Date(2026, 12, 24, 18, 0, 0, 0, time.UTC)

	task := &domain.Task{Name: "Wrap gifts", DueDate: &due, Status: domain.StatusPending}
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("status only keeps other fields", func(t *testing.T) {
		got, err := repo.Update(ctx, task.ID, domain.Patch{}.SetStatus(domain.StatusInProgress))
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if got.Status != domain.StatusInProgress {
			t.Errorf("expected status in-progress, got %q", got.Status)
		}
		if got.Name != "Wrap gifts" {
			t.Errorf("name changed to %q", got.Name)
		}
		if got.DueDate == nil || !got.DueDate.Equal(due) {
			t.Errorf("due date changed to %v", got.DueDate)
		}
		if !got.CreatedAt.Equal(task.CreatedAt) {
			t.Errorf("created_at changed to %v", got.CreatedAt)
		}
	})

	t.Run("explicit null clears due date", func(t *testing.T) {
		got, err := repo.Update(ctx, task.ID, domain.Patch{}.SetDueDate(nil))
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if got.DueDate != nil {
			t.Errorf("expected due date cleared, got %v", got.DueDate)
		}
	})

	t.Run("same values still count as found", func(t *testing.T) {
		if _, err := repo.Update(ctx, task.ID, domain.Patch{}.SetName("Wrap gifts")); err != nil {
			t.Errorf("Update() with unchanged value error = %v", err)
		}
	})

	t.Run("inactive task is not found", func(t *testing.T) {
		if err := repo.Deactivate(ctx, task.ID); err != nil {
			t.Fatalf("Deactivate() error = %v", err)
		}
		_, err := repo.Update(ctx, task.ID, domain.Patch{}.SetName("Ghost"))
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestGormRepository_Deactivate(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	task := createTestTask(t, repo, "delete me")

	if err := repo.Deactivate(ctx, task.ID); err != nil {
		t.Fatalf("first Deactivate() error = %v", err)
	}
	if err := repo.Deactivate(ctx, task.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second Deactivate() error = %v, want ErrNotFound", err)
	}

	if _, err := repo.Get(ctx, task.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}

	// The row is retained.
	var count int64
	if err := repo.db.Model(&domain.Task{}).Where("id = ?", task.ID).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected soft-deleted row to remain, found %d rows", count)
	}
}

func TestGormRepository_Ping(t *testing.T) {
	repo := setupTestRepository(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
