package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id         BIGSERIAL PRIMARY KEY,
	name       VARCHAR(255) NOT NULL,
	due_date   TIMESTAMPTZ NULL,
	status     VARCHAR(20) NOT NULL DEFAULT 'pending'
	           CONSTRAINT chk_tasks_status CHECK (status IN ('pending', 'in-progress', 'completed')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	is_active  BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_tasks_active_created ON tasks (is_active, created_at DESC);
`

const taskColumns = "id, name, due_date, status, created_at"

// PostgresRepository stores tasks in PostgreSQL through a pgx pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// Compile-time interface check.
var _ domain.Repository = (*PostgresRepository)(nil)

// OpenPostgres connects to databaseURL, verifies the connection and ensures the schema.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, &domain.StoreError{Op: "open", Err: err}
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &domain.StoreError{Op: "ping", Err: err}
	}

	repo := NewPostgresRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return repo, nil
}

// NewPostgresRepository creates a repository over an existing pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate creates the tasks table if it does not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, postgresSchema); err != nil {
		return &domain.StoreError{Op: "migrate", Err: err}
	}
	return nil
}

// List returns all active tasks, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]domain.Task, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE is_active ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, &domain.StoreError{Op: "list", Err: err}
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, &domain.StoreError{Op: "list", Err: err}
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "list", Err: err}
	}
	return tasks, nil
}

// Get returns a single active task.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = $1 AND is_active", id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, &domain.StoreError{Op: "get", Err: err}
	}
	return t, nil
}

// Create inserts a new active task and fills in the generated id and created_at.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Task) error {
	err := r.pool.QueryRow(ctx,
		"INSERT INTO tasks (name, due_date, status) VALUES ($1, $2, $3) RETURNING id, created_at",
		t.Name, t.DueDate, string(t.Status),
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if isCheckViolation(err) {
			return domain.NewValidationError("Invalid status: must be one of pending, in-progress, completed")
		}
		return &domain.StoreError{Op: "create", Err: err}
	}
	t.IsActive = true
	t.CreatedAt = t.CreatedAt.UTC()
	return nil
}

// Update applies the patch to an active task and returns the stored row in
// the same statement.
func (r *PostgresRepository) Update(ctx context.Context, id int64, patch domain.Patch) (*domain.Task, error) {
	cols := patch.Columns()
	if len(cols) == 0 {
		return nil, domain.ErrNoFields
	}

	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", c.Name, i+1))
		args = append(args, c.Value)
	}
	args = append(args, id)

	query := fmt.Sprintf(
		"UPDATE tasks SET %s WHERE id = $%d AND is_active RETURNING %s",
		strings.Join(sets, ", "), len(args), taskColumns,
	)

	t, err := scanTask(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if isCheckViolation(err) {
			return nil, domain.NewValidationError("Invalid status: must be one of pending, in-progress, completed")
		}
		return nil, &domain.StoreError{Op: "update", Err: err}
	}
	return t, nil
}

// Deactivate soft-deletes an active task.
func (r *PostgresRepository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "UPDATE tasks SET is_active = FALSE WHERE id = $1 AND is_active", id)
	if err != nil {
		return &domain.StoreError{Op: "deactivate", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Ping verifies the database is reachable.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return &domain.StoreError{Op: "ping", Err: err}
	}
	return nil
}

// Close releases the pool.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		t      domain.Task
		status string
	)
	if err := row.Scan(&t.ID, &t.Name, &t.DueDate, &status, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Status = domain.Status(status)
	t.IsActive = true
	t.CreatedAt = t.CreatedAt.UTC()
	if t.DueDate != nil {
		d := t.DueDate.UTC()
		t.DueDate = &d
	}
	return &t, nil
}

// isCheckViolation reports whether err is a PostgreSQL check constraint violation.
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23514"
	}
	return false
}
