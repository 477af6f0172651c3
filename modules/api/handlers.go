package api

import (
	"encoding/json"
	"errors"
	"fmt"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/modules/task"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
)

const contentTypeJSON = "application/json; charset=UTF-8"

// allowedMethods is advertised on 405 responses.
const allowedMethods = "GET, POST, PUT, DELETE"

// Client-facing messages.
const (
	msgNotFound          = "Task not found"
	msgMissingUpdateID   = "Missing id for update"
	msgUpdateNotFound    = "Task not found or not active"
	msgMissingDeleteID   = "Missing id for delete"
	msgDeleted           = "Task deleted successfully"
	msgDeleteNotFound    = "Task not found or already deleted"
	msgStoreError        = "Database error processing your request."
	msgUncategorizedErr  = "A general error occurred."
	msgMethodNotAllowedF = "Method Not Allowed. Allowed methods: %s. Original method: %s, Processed method: %s"
)

// Handlers serves the task collection through a single dispatcher.
type Handlers struct {
	tasks  task.TaskPort
	logger types.Logger
}

// NewHandlers creates handlers backed by tasks.
func NewHandlers(tasks task.TaskPort, logger types.Logger) *Handlers {
	return &Handlers{tasks: tasks, logger: logger}
}

// Dispatch resolves the effective method and target id, then runs the
// matching operation.
func (h *Handlers) Dispatch(c *fiber.Ctx) error {
	original := c.Method()

	body := map[string]json.RawMessage{}
	switch original {
	case fiber.MethodPost, fiber.MethodPut, fiber.MethodDelete:
		decoded, err := decodeBody(c.Body())
		if err != nil {
			return h.fail(c, err, msgNotFound)
		}
		body = decoded
	}

	method := ResolveMethod(original, methodOverride(body))
	id, hasID := ResolveID(c.Params("id"), c.Query("id"), body["id"], method)

	switch method {
	case fiber.MethodGet:
		if hasID {
			return h.getTask(c, id)
		}
		return h.listTasks(c)
	case fiber.MethodPost:
		return h.createTask(c, body)
	case fiber.MethodPut:
		if !hasID {
			return writeJSON(c, fiber.StatusBadRequest, ErrorResponse{Error: msgMissingUpdateID})
		}
		return h.updateTask(c, id, body)
	case fiber.MethodDelete:
		if !hasID {
			return writeJSON(c, fiber.StatusBadRequest, ErrorResponse{Error: msgMissingDeleteID})
		}
		return h.deleteTask(c, id)
	default:
		c.Set(fiber.HeaderAllow, allowedMethods)
		return writeJSON(c, fiber.StatusMethodNotAllowed, ErrorResponse{
			Error: fmt.Sprintf(msgMethodNotAllowedF, allowedMethods, original, method),
		})
	}
}

func (h *Handlers) listTasks(c *fiber.Ctx) error {
	tasks, err := h.tasks.ListTasks(c.UserContext())
	if err != nil {
		return h.fail(c, err, msgNotFound)
	}
	return writeJSON(c, fiber.StatusOK, toTaskResponses(tasks))
}

func (h *Handlers) getTask(c *fiber.Ctx, id int64) error {
	t, err := h.tasks.GetTask(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err, msgNotFound)
	}
	return writeJSON(c, fiber.StatusOK, toTaskResponse(t))
}

func (h *Handlers) createTask(c *fiber.Ctx, body map[string]json.RawMessage) error {
	in, err := createInputFromBody(body)
	if err != nil {
		return h.fail(c, err, msgNotFound)
	}

	t, err := h.tasks.CreateTask(c.UserContext(), in)
	if err != nil {
		return h.fail(c, err, msgNotFound)
	}
	return writeJSON(c, fiber.StatusCreated, toTaskResponse(t))
}

func (h *Handlers) updateTask(c *fiber.Ctx, id int64, body map[string]json.RawMessage) error {
	patch, err := patchFromBody(body)
	if err != nil {
		return h.fail(c, err, msgUpdateNotFound)
	}

	t, err := h.tasks.UpdateTask(c.UserContext(), id, patch)
	if err != nil {
		return h.fail(c, err, msgUpdateNotFound)
	}
	return writeJSON(c, fiber.StatusOK, toTaskResponse(t))
}

func (h *Handlers) deleteTask(c *fiber.Ctx, id int64) error {
	if err := h.tasks.DeleteTask(c.UserContext(), id); err != nil {
		return h.fail(c, err, msgDeleteNotFound)
	}
	return writeJSON(c, fiber.StatusOK, MessageResponse{Message: msgDeleted})
}

// Health reports whether the task store is reachable.
func (h *Handlers) Health(c *fiber.Ctx) error {
	if err := h.tasks.Health(c.UserContext()); err != nil {
		h.logger.WithError(err).Warn("Health check failed", "request_id", requestID(c))
		return writeJSON(c, fiber.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: "task store unreachable"})
	}
	return writeJSON(c, fiber.StatusOK, HealthResponse{Status: "ok"})
}

// fail converts err into a client response. Store and unexpected errors are
// logged and replaced by a generic message.
func (h *Handlers) fail(c *fiber.Ctx, err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return writeJSON(c, fiber.StatusNotFound, ErrorResponse{Error: notFoundMsg})
	case errors.Is(err, domain.ErrValidation):
		return writeJSON(c, fiber.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case domain.IsStoreError(err):
		h.logger.WithError(err).Error("Store error", "request_id", requestID(c), "method", c.Method(), "path", c.Path())
		return writeJSON(c, fiber.StatusInternalServerError, ErrorResponse{Error: msgStoreError})
	default:
		h.logger.WithError(err).Error("Unexpected error", "request_id", requestID(c), "method", c.Method(), "path", c.Path())
		return writeJSON(c, fiber.StatusInternalServerError, ErrorResponse{Error: msgUncategorizedErr})
	}
}

// writeJSON writes v with the JSON content type used by every response.
func writeJSON(c *fiber.Ctx, status int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.Status(status)
	c.Set(fiber.HeaderContentType, contentTypeJSON)
	return c.Send(data)
}

func requestID(c *fiber.Ctx) string {
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
