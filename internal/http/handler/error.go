package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"backoffice/internal/http/middleware"
	"backoffice/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// writeError writes a standardized JSON error response. message and details
// must be safe to show to the client.
func writeError(c *fiber.Ctx, status int, code, message string, details ...string) error {
	res := errorPayload{
		RequestID: middleware.GetRequestID(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	if len(details) > 0 {
		res.Error.Details = details[0]
	}
	return c.Status(status).JSON(res)
}

type errorKind struct {
	sentinel error
	status   int
	code     string
	message  string
}

var errorKinds = []errorKind{
	{service.ErrValidation, fiber.StatusBadRequest, "VALIDATION_ERROR", "validation failed"},
	{service.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "resource not found"},
	{service.ErrInvalidTransition, fiber.StatusConflict, "INVALID_TRANSITION", "invalid status transition"},
	{service.ErrConflict, fiber.StatusConflict, "CONFLICT", "resource already exists"},
	{service.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"},
	{service.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN", "forbidden"},
	{service.ErrUnprocessable, fiber.StatusUnprocessableEntity, "UNPROCESSABLE", "request cannot be processed"},
	{service.ErrUpstream, fiber.StatusBadGateway, "UPSTREAM_ERROR", "upstream service error"},
	{service.ErrConfig, fiber.StatusInternalServerError, "CONFIG_ERROR", "service is not configured"},
}

// fail maps a service error onto the envelope. Unknown errors become a
// generic 500; the cause is kept in locals for the access log only.
func fail(c *fiber.Ctx, err error) error {
	var de *service.DetailError
	hasDetail := errors.As(err, &de)

	for _, k := range errorKinds {
		if !errors.Is(err, k.sentinel) {
			continue
		}
		code := k.code
		if hasDetail && de.Code != "" {
			code = de.Code
		}
		if k.status >= fiber.StatusInternalServerError {
			c.Locals(middleware.ErrorLocalKey, err)
		}
		if hasDetail {
			if k.sentinel == service.ErrNotFound {
				return writeError(c, k.status, code, de.Message)
			}
			return writeError(c, k.status, code, k.message, de.Message)
		}
		return writeError(c, k.status, code, k.message)
	}

	c.Locals(middleware.ErrorLocalKey, err)
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else {
			c.Locals(middleware.ErrorLocalKey, err)
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", fe.Message)
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
