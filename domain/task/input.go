package task

import (
	"strings"
	"time"
)

// CreateInput carries the client-settable fields of a new task.
type CreateInput struct {
	Name    string     `json:"name"`
	DueDate *time.Time `json:"due_date,omitempty"`
	Status  Status     `json:"status,omitempty"`
}

// Normalize trims the name, applies the default status and validates the result.
func (in CreateInput) Normalize() (CreateInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, ErrNameRequired
	}
	if in.Status == "" {
		in.Status = StatusPending
	}
	if !in.Status.Valid() {
		return in, NewValidationError("Invalid status: must be one of pending, in-progress, completed")
	}
	if in.DueDate != nil {
		d := in.DueDate.UTC()
		in.DueDate = &d
	}
	return in, nil
}

// Task builds the entity to persist. ID and CreatedAt are assigned by the store.
func (in CreateInput) Task() *Task {
	return &Task{
		Name:     in.Name,
		DueDate:  in.DueDate,
		Status:   in.Status,
		IsActive: true,
	}
}

// Patch is a partial update. A nil field is left unchanged; DueDateSet with a
// nil DueDate clears the due date.
type Patch struct {
	Name       *string    `json:"name,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	DueDateSet bool       `json:"due_date_set,omitempty"`
	Status     *Status    `json:"status,omitempty"`
}

// SetName returns a copy of p that overwrites the name.
func (p Patch) SetName(name string) Patch {
	p.Name = &name
	return p
}

// SetDueDate returns a copy of p that overwrites the due date; nil clears it.
func (p Patch) SetDueDate(due *time.Time) Patch {
	p.DueDate = due
	p.DueDateSet = true
	return p
}

// SetStatus returns a copy of p that overwrites the status.
func (p Patch) SetStatus(s Status) Patch {
	p.Status = &s
	return p
}

// IsEmpty reports whether the patch touches no field.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && !p.DueDateSet && p.Status == nil
}

// Normalize validates the patch and trims the name.
func (p Patch) Normalize() (Patch, error) {
	if p.IsEmpty() {
		return p, ErrNoFields
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return p, ErrNameRequired
		}
		p.Name = &name
	}
	if p.Status != nil && !p.Status.Valid() {
		return p, NewValidationError("Invalid status: must be one of pending, in-progress, completed")
	}
	if p.DueDateSet && p.DueDate != nil {
		d := p.DueDate.UTC()
		p.DueDate = &d
	}
	return p, nil
}

// Columns maps the patch onto column assignments, in a stable order.
func (p Patch) Columns() []Column {
	var cols []Column
	if p.Name != nil {
		cols = append(cols, Column{Name: "name", Value: *p.Name})
	}
	if p.DueDateSet {
		var v any
		if p.DueDate != nil {
			v = *p.DueDate
		}
		cols = append(cols, Column{Name: "due_date", Value: v})
	}
	if p.Status != nil {
		cols = append(cols, Column{Name: "status", Value: string(*p.Status)})
	}
	return cols
}

// Column is a single column assignment of an update statement.
type Column struct {
	Name  string
	Value any
}

// Apply merges the patch into t.
func (p Patch) Apply(t *Task) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.DueDateSet {
		t.DueDate = p.DueDate
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
}
