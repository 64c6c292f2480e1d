package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/RentPulse/internal/pkg/middleware"
)

// HttpRouter installs the global middleware and the routes outside the
// versioned API: health, metrics, billing webhooks and cron.
type HttpRouter struct {
	deps *Dependencies
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware(h.deps.Sessions, h.deps.Users, h.deps.Subscriptions))

	h.registerPublicRoutes(app)
}

func NewHttpRouter(deps *Dependencies) *HttpRouter {
	return &HttpRouter{deps: deps}
}
