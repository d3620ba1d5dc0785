package middleware

import (
	"github.com/gofiber/fiber/v2"

	"backoffice/internal/auth"
)

const (
	UserIDLocalKey = "user_id"
	EmailLocalKey  = "email"
)

// Auth rejects requests without a valid bearer token. EventSource clients
// cannot set headers, so GET requests may pass the token as ?access_token=.
func Auth(v *auth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" && c.Method() == fiber.MethodGet {
			token = c.Query("access_token")
		}
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		id, err := v.Verify(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}
		c.Locals(UserIDLocalKey, id.UserID)
		c.Locals(EmailLocalKey, id.Email)
		return c.Next()
	}
}

// UserID returns the authenticated user id, or "" on public routes.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDLocalKey).(string)
	return id
}
