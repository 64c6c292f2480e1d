package middleware

import (
	"errors"

	"github.com/ManuelReschke/RentPulse/internal/pkg/adminsession"
	"github.com/ManuelReschke/RentPulse/internal/pkg/apperr"
	"github.com/ManuelReschke/RentPulse/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
)

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error":   "unauthorized",
		"message": message,
	})
}

// RequireAuth ensures a logged-in session for API routes and returns JSON 401.
func RequireAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return unauthorized(c, "login required")
	}
	return c.Next()
}

// RequireAdminSession validates the bearer token of back-office requests and
// stores the admin identity in the request context.
func RequireAdminSession(store *adminsession.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return unauthorized(c, "admin session token required")
		}
		sess, err := store.Validate(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, apperr.ErrAuthentication) {
				return unauthorized(c, "invalid or expired admin session")
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "internal_server_error",
				"message": "admin session verification failed",
			})
		}
		usercontext.SetAdminContext(c, usercontext.AdminContext{
			AdminID: sess.AdminID,
			Email:   sess.Email,
			Role:    sess.Role,
			Token:   token,
		})
		return c.Next()
	}
}
