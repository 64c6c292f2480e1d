package middleware

import (
	"context"
	"time"

	"github.com/ManuelReschke/RentPulse/app/models"
	"github.com/ManuelReschke/RentPulse/app/repository"
	"github.com/ManuelReschke/RentPulse/internal/pkg/entitlements"
	"github.com/ManuelReschke/RentPulse/internal/pkg/logging"
	"github.com/ManuelReschke/RentPulse/internal/pkg/session"
	"github.com/ManuelReschke/RentPulse/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
)

// SubscriptionSource loads the subscription row entitlement is resolved from.
type SubscriptionSource interface {
	Subscription(ctx context.Context, userID uint) (*models.Subscription, error)
}

// UserContextMiddleware sets up the complete user context for every request.
// The entitlement is resolved once here and read by the handlers.
func UserContextMiddleware(sessions *session.Manager, users repository.UserRepository, subs SubscriptionSource) fiber.Handler {
	log := logging.Component("middleware")
	return func(c *fiber.Ctx) error {
		anonymous := usercontext.UserContext{
			IsLoggedIn:  false,
			Entitlement: entitlements.Resolve(nil, time.Now()),
		}

		userID, ok := sessions.UserID(c)
		if !ok {
			usercontext.SetUserContext(c, anonymous)
			return c.Next()
		}

		user, err := users.GetByID(userID)
		if err != nil || !user.IsActive() {
			// deleted or disabled accounts lose their session
			_ = sessions.Logout(c)
			usercontext.SetUserContext(c, anonymous)
			return c.Next()
		}

		sub, err := subs.Subscription(c.UserContext(), userID)
		if err != nil {
			log.Error().Err(err).Uint("user_id", userID).Msg("could not load subscription, treating user as free")
			sub = nil
		}

		usercontext.SetUserContext(c, usercontext.UserContext{
			UserID:      user.ID,
			Email:       user.Email,
			Name:        user.FullName(),
			IsLoggedIn:  true,
			Entitlement: entitlements.Resolve(sub, time.Now()),
		})
		return c.Next()
	}
}
