package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/ManuelReschke/RentPulse/internal/pkg/adminsession"
	"github.com/ManuelReschke/RentPulse/internal/pkg/logging"
	"github.com/gofiber/fiber/v2"
)

// RequireCronSecret authenticates scheduler calls carrying
// "Authorization: Bearer <secret>". An empty secret disables the endpoint.
func RequireCronSecret(secret string) fiber.Handler {
	log := logging.Component("middleware")
	return func(c *fiber.Ctx) error {
		if secret == "" {
			log.Warn().Str("path", c.Path()).Msg("cron endpoint called but CRON_SECRET is not configured")
			return unauthorized(c, "cron endpoint disabled")
		}
		token := bearerToken(c)
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			return unauthorized(c, "invalid cron secret")
		}
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	return adminsession.TokenFromHeader(strings.TrimSpace(c.Get(fiber.HeaderAuthorization)))
}
