package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ManuelReschke/RentPulse/app/controllers"
	"github.com/ManuelReschke/RentPulse/app/repository"
	"github.com/ManuelReschke/RentPulse/internal/pkg/adminsession"
	"github.com/ManuelReschke/RentPulse/internal/pkg/middleware"
	"github.com/ManuelReschke/RentPulse/internal/pkg/session"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies carries everything the routes are wired to.
type Dependencies struct {
	Sessions      *session.Manager
	Users         repository.UserRepository
	Subscriptions middleware.SubscriptionSource
	AdminSessions *adminsession.Store

	CronSecret      string
	RateLimitMax    int
	RateLimitWindow time.Duration
	// LimiterStorage is optional; nil keeps limiter state in memory.
	LimiterStorage fiber.Storage
	// Gatherer serves /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer

	Auth        *controllers.AuthController
	Billing     *controllers.BillingController
	Webhook     *controllers.WebhookController
	Calculator  *controllers.CalculatorController
	Property    *controllers.PropertyController
	Rent        *controllers.RentController
	Maintenance *controllers.MaintenanceController
	Admin       *controllers.AdminController
	Cron        *controllers.CronController
}

func InstallRouter(app *fiber.App, deps *Dependencies) {
	// HttpRouter installs the global user context middleware the API routes
	// depend on, so it goes first.
	setup(app, NewHttpRouter(deps), NewApiRouter(deps), NewAdminRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
