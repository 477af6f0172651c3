package task

import "context"

// Repository is the persistence port for tasks. Implementations only ever see
// active rows through List, Get, Update and Deactivate.
type Repository interface {
	// List returns active tasks, newest first.
	List(ctx context.Context) ([]Task, error)
	// Get returns the active task with the given id or ErrNotFound.
	Get(ctx context.Context, id int64) (*Task, error)
	// Create inserts t and fills in ID and CreatedAt.
	Create(ctx context.Context, t *Task) error
	// Update applies the patch to an active task in one statement and returns the stored row.
	Update(ctx context.Context, id int64, patch Patch) (*Task, error)
	// Deactivate soft-deletes an active task. ErrNotFound if no row was flipped.
	Deactivate(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
	Close() error
}
