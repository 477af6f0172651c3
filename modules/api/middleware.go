package api

import (
	"errors"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
)

const (
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, X-Requested-With"
)

// corsMiddleware grants cross-origin access to a single origin and answers
// every preflight with 200 and an empty body.
func corsMiddleware(origin string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
		c.Set(fiber.HeaderAccessControlAllowMethods, corsAllowMethods)
		c.Set(fiber.HeaderAccessControlAllowHeaders, corsAllowHeaders)
		c.Vary(fiber.HeaderOrigin)

		if c.Method() == fiber.MethodOptions {
			c.Set(fiber.HeaderContentType, contentTypeJSON)
			c.Status(fiber.StatusOK)
			return nil
		}
		return c.Next()
	}
}

// newErrorHandler renders errors escaping the handlers, such as unknown
// routes and recovered panics, with the same JSON error body. Server-side
// failures are logged.
func newErrorHandler(logger types.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := msgUncategorizedErr

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		if code >= fiber.StatusInternalServerError {
			logger.WithError(err).Error("Request failed",
				"request_id", requestID(c), "method", c.Method(), "path", c.Path(), "status", code)
		}

		return writeJSON(c, code, ErrorResponse{Error: message})
	}
}
