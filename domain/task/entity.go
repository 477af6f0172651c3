package task

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the workflow state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every accepted status in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// Valid reports whether s is one of the accepted statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ParseStatus converts user input into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", NewValidationError(fmt.Sprintf("Invalid status %q: must be one of pending, in-progress, completed", raw))
	}
	return s, nil
}

// Task is the core domain entity and the persisted row of the tasks table.
// IsActive is the soft-delete flag and is never serialized.
type Task struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string     `gorm:"size:255;not null" json:"name"`
	DueDate   *time.Time `json:"due_date"`
	Status    Status     `gorm:"size:20;not null;default:pending;check:chk_tasks_status,status IN ('pending','in-progress','completed')" json:"status"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	IsActive  bool       `gorm:"not null;default:true;index" json:"-"`
}

// TableName returns the table name for Task.
func (Task) TableName() string {
	return "tasks"
}
