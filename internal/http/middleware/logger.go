package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"

	"backoffice/internal/logger"
)

// ErrorLocalKey holds an internal error recorded by a handler. It is only
// ever logged, never returned to the client.
const ErrorLocalKey = "internal_error"

// Logger writes one structured line per request with request_id, method,
// path, status and latency in milliseconds, plus the trace id when a span is
// active. 5xx responses are logged at
// error level, 4xx at warn.
func Logger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		kv := []any{
			"request_id", GetRequestID(c),
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", float64(time.Since(start).Microseconds()) / 1000,
		}
		if sc := trace.SpanContextFromContext(c.UserContext()); sc.HasTraceID() {
			kv = append(kv, "trace_id", sc.TraceID().String())
		}
		if uid, ok := c.Locals(UserIDLocalKey).(string); ok && uid != "" {
			kv = append(kv, "user_id", uid)
		}
		if internal, ok := c.Locals(ErrorLocalKey).(error); ok && internal != nil {
			kv = append(kv, "error", internal.Error())
		} else if err != nil {
			kv = append(kv, "error", err.Error())
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error("http_request", kv...)
		case status >= fiber.StatusBadRequest:
			log.Warn("http_request", kv...)
		default:
			log.Info("http_request", kv...)
		}
		return err
	}
}
