// Package tasklist holds the in-memory task list behind a task UI and the
// transitions user actions drive it through.
package tasklist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/example/task-tracker/client"
)

var (
	// ErrBusy is returned when a mutating action starts while another
	// request is outstanding.
	ErrBusy = errors.New("another request is in progress")
	// ErrNoSelection is returned when saving or confirming without a selection.
	ErrNoSelection = errors.New("no task selected")
	// ErrUnknownTask is returned when selecting a task that is not in the list.
	ErrUnknownTask = errors.New("task is not in the list")
)

// Backend is the data layer the model drives. *client.Client implements it.
type Backend interface {
	List(ctx context.Context) ([]client.Task, error)
	Create(ctx context.Context, d client.Draft) (client.Task, error)
	Update(ctx context.Context, id int64, ch client.Changes) (client.Task, error)
	Delete(ctx context.Context, id int64) (string, error)
}

// Notifier surfaces outcomes to the user.
type Notifier interface {
	Success(message string)
	Failure(title, message string)
}

// Model is the authoritative client-side task list. A single loading flag
// gates every request; failures leave the state as it was.
type Model struct {
	backend Backend
	notify  Notifier

	mu            sync.Mutex
	tasks         []client.Task
	loading       bool
	editing       *client.Task
	pendingDelete *client.Task
}

// New creates an empty model.
func New(backend Backend, notify Notifier) *Model {
	return &Model{backend: backend, notify: notify}
}

// Tasks returns a copy of the list, newest first.
func (m *Model) Tasks() []client.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]client.Task, len(m.tasks))
	copy(out, m.tasks)
	return out
}

// Loading reports whether a request is outstanding.
func (m *Model) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Editing returns the task selected for editing, if any.
func (m *Model) Editing() (client.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.editing == nil {
		return client.Task{}, false
	}
	return *m.editing, true
}

// PendingDelete returns the task awaiting delete confirmation, if any.
func (m *Model) PendingDelete() (client.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pendingDelete == nil {
		return client.Task{}, false
	}
	return *m.pendingDelete, true
}

// Load replaces the list with the server's.
func (m *Model) Load(ctx context.Context) error {
	if err := m.begin(); err != nil {
		return err
	}

	tasks, err := m.backend.List(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false
	if err != nil {
		m.notify.Failure("Failed to load tasks", message(err))
		return err
	}
	m.tasks = tasks
	m.sortLocked()
	return nil
}

// Add creates a task and inserts it into the list.
func (m *Model) Add(ctx context.Context, d client.Draft) error {
	if err := m.begin(); err != nil {
		return err
	}

	created, err := m.backend.Create(ctx, d)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false
	if err != nil {
		m.notify.Failure("Failed to add task", message(err))
		return err
	}
	m.tasks = append([]client.Task{created}, m.tasks...)
	m.sortLocked()
	m.notify.Success(fmt.Sprintf("Task %q added.", created.Name))
	return nil
}

// BeginEdit selects a listed task for editing.
func (m *Model) BeginEdit(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.findLocked(id)
	if !ok {
		return ErrUnknownTask
	}
	m.editing = &t
	return nil
}

// CancelEdit clears the edit selection.
func (m *Model) CancelEdit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.editing = nil
}

// SaveEdit sends changes for the task being edited. On success the list
// entry is replaced and the selection cleared; on failure the selection stays.
func (m *Model) SaveEdit(ctx context.Context, ch client.Changes) error {
	m.mu.Lock()
	if m.editing == nil {
		m.mu.Unlock()
		return ErrNoSelection
	}
	if m.loading {
		m.mu.Unlock()
		return ErrBusy
	}
	id := m.editing.ID
	m.loading = true
	m.mu.Unlock()

	updated, err := m.backend.Update(ctx, id, ch)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false
	if err != nil {
		m.notify.Failure("Failed to update task", message(err))
		return err
	}
	m.replaceLocked(updated)
	m.sortLocked()
	m.editing = nil
	m.notify.Success(fmt.Sprintf("Task %q updated.", updated.Name))
	return nil
}

// RequestDelete selects a listed task for delete confirmation.
func (m *Model) RequestDelete(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.findLocked(id)
	if !ok {
		return ErrUnknownTask
	}
	m.pendingDelete = &t
	return nil
}

// CancelDelete clears the delete selection.
func (m *Model) CancelDelete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingDelete = nil
}

// ConfirmDelete deletes the task awaiting confirmation.
func (m *Model) ConfirmDelete(ctx context.Context) error {
	m.mu.Lock()
	if m.pendingDelete == nil {
		m.mu.Unlock()
		return ErrNoSelection
	}
	if m.loading {
		m.mu.Unlock()
		return ErrBusy
	}
	target := *m.pendingDelete
	m.loading = true
	m.mu.Unlock()

	_, err := m.backend.Delete(ctx, target.ID)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false
	if err != nil {
		m.notify.Failure("Failed to delete task", message(err))
		return err
	}
	m.removeLocked(target.ID)
	m.sortLocked()
	m.pendingDelete = nil
	if m.editing != nil && m.editing.ID == target.ID {
		m.editing = nil
	}
	m.notify.Success(fmt.Sprintf("Task %q deleted.", target.Name))
	return nil
}

func (m *Model) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loading {
		return ErrBusy
	}
	m.loading = true
	return nil
}

func (m *Model) findLocked(id int64) (client.Task, bool) {
	for _, t := range m.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return client.Task{}, false
}

func (m *Model) replaceLocked(t client.Task) {
	next := make([]client.Task, len(m.tasks))
	copy(next, m.tasks)
	for i := range next {
		if next[i].ID == t.ID {
			next[i] = t
			m.tasks = next
			return
		}
	}
	m.tasks = append(next, t)
}

func (m *Model) removeLocked(id int64) {
	next := make([]client.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		if t.ID != id {
			next = append(next, t)
		}
	}
	m.tasks = next
}

// sortLocked orders the list by created_at descending, ties by id descending.
func (m *Model) sortLocked() {
	sort.SliceStable(m.tasks, func(i, j int) bool {
		a, b := m.tasks[i], m.tasks[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// message returns the user-facing text of err.
func message(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
