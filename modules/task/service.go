package task

import (
	"context"

	domain "github.com/example/task-tracker/domain/task"
)

// Service implements the task operations over a Repository.
type Service struct {
	repo domain.Repository
}

// Compile-time interface check.
var _ TaskPort = (*Service)(nil)

// NewService creates a task service backed by repo.
func NewService(repo domain.Repository) *Service {
	return &Service{repo: repo}
}

// ListTasks returns every active task, newest first. The result is never nil.
func (s *Service) ListTasks(ctx context.Context) ([]domain.Task, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

// GetTask returns one active task.
func (s *Service) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	if id <= 0 {
		return nil, domain.ErrIDRequired
	}
	return s.repo.Get(ctx, id)
}

// CreateTask validates in and stores a new task. Nothing is written when
// validation fails.
func (s *Service) CreateTask(ctx context.Context, in domain.CreateInput) (*domain.Task, error) {
	in, err := in.Normalize()
	if err != nil {
		return nil, err
	}

	t := in.Task()
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTask overwrites the fields present in patch on an active task.
func (s *Service) UpdateTask(ctx context.Context, id int64, patch domain.Patch) (*domain.Task, error) {
	if id <= 0 {
		return nil, domain.ErrIDRequired
	}
	patch, err := patch.Normalize()
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, patch)
}

// DeleteTask soft-deletes an active task.
func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrIDRequired
	}
	return s.repo.Deactivate(ctx, id)
}

// Health pings the store.
func (s *Service) Health(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
