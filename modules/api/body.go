package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	domain "github.com/example/task-tracker/domain/task"
)

var errInvalidBody = domain.NewValidationError("Invalid JSON body: expected an object")

// decodeBody parses a request body into its top-level fields. An empty body
// is an empty object.
func decodeBody(raw []byte) (map[string]json.RawMessage, error) {
	body := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return body, nil
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, errInvalidBody
	}
	if body == nil {
		return map[string]json.RawMessage{}, nil
	}
	return body, nil
}

// stringField returns the string value of key. present is false when the key
// is missing; value is nil when the key holds null.
func stringField(body map[string]json.RawMessage, key string) (value *string, present bool, err error) {
	raw, ok := body[key]
	if !ok {
		return nil, false, nil
	}
	if string(bytes.TrimSpace(raw)) == "null" {
		return nil, true, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, true, domain.NewValidationError(fmt.Sprintf("Invalid field %s: expected a string", key))
	}
	return &s, true, nil
}

// createInputFromBody maps a create request onto domain.CreateInput.
func createInputFromBody(body map[string]json.RawMessage) (domain.CreateInput, error) {
	var in domain.CreateInput

	name, _, err := stringField(body, "name")
	if err != nil {
		return in, err
	}
	if name == nil {
		return in, domain.ErrNameRequired
	}
	in.Name = *name

	due, _, err := stringField(body, "due_date")
	if err != nil {
		return in, err
	}
	if due != nil && *due != "" {
		t, err := domain.ParseTimestamp(*due)
		if err != nil {
			return in, err
		}
		in.DueDate = &t
	}

	status, _, err := stringField(body, "status")
	if err != nil {
		return in, err
	}
	if status != nil && *status != "" {
		s, err := domain.ParseStatus(*status)
		if err != nil {
			return in, err
		}
		in.Status = s
	}

	return in, nil
}

// patchFromBody maps the fields present in an update request onto a Patch.
// An explicit null or empty due_date clears it.
func patchFromBody(body map[string]json.RawMessage) (domain.Patch, error) {
	var p domain.Patch

	name, present, err := stringField(body, "name")
	if err != nil {
		return p, err
	}
	if present {
		if name == nil {
			return p, domain.ErrNameRequired
		}
		p = p.SetName(*name)
	}

	due, present, err := stringField(body, "due_date")
	if err != nil {
		return p, err
	}
	if present {
		if due == nil || *due == "" {
			p = p.SetDueDate(nil)
		} else {
			t, err := domain.ParseTimestamp(*due)
			if err != nil {
				return p, err
			}
			p = p.SetDueDate(&t)
		}
	}

	status, present, err := stringField(body, "status")
	if err != nil {
		return p, err
	}
	if present {
		if status == nil {
			return p, domain.NewValidationError("Invalid status: must be one of pending, in-progress, completed")
		}
		s, err := domain.ParseStatus(*status)
		if err != nil {
			return p, err
		}
		p = p.SetStatus(s)
	}

	return p, nil
}
