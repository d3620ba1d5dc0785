package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"backoffice/internal/http/middleware"
)

// page reads limit/offset. Absent values are passed as 0 so each service
// applies its own default page size.
func page(c *fiber.Ctx) (limit, offset int, ok bool) {
	var err error
	if v := c.Query("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			_ = writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
			return 0, 0, false
		}
	}
	if v := c.Query("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil {
			_ = writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
			return 0, 0, false
		}
	}
	return limit, offset, true
}

// idParam returns the named path parameter when it is a UUID. On failure the
// 400 response has already been written and ok is false.
func idParam(c *fiber.Ctx, name string) (id string, ok bool) {
	id = c.Params(name)
	if _, err := uuid.Parse(id); err != nil {
		_ = writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		return "", false
	}
	return id, true
}

// bindJSON decodes the request body into out.
func bindJSON(c *fiber.Ctx, out any) bool {
	if len(c.Body()) == 0 {
		_ = writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body is required")
		return false
	}
	if err := c.BodyParser(out); err != nil {
		_ = writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "malformed request body", err.Error())
		return false
	}
	return true
}

// queryTime parses an RFC3339 timestamp or a YYYY-MM-DD date. An absent
// value yields the zero time.
func queryTime(c *fiber.Ctx, key string) (time.Time, bool) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, true
	}
	_ = writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "invalid "+key, "expected RFC3339 or YYYY-MM-DD")
	return time.Time{}, false
}

func userID(c *fiber.Ctx) string { return middleware.UserID(c) }

func created(c *fiber.Ctx, v any) error {
	return c.Status(fiber.StatusCreated).JSON(v)
}
