package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/RentPulse/internal/pkg/middleware"
)

type ApiRouter struct {
	deps *Dependencies
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", cors.New(), newRateLimiter(h.deps, "api", func(c *fiber.Ctx) bool {
		return c.Path() == "/api/cron/send-reminders"
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "RentPulse API",
		})
	})

	v1 := api.Group("/v1")

	// Auth
	v1.Post("/auth/register", h.deps.Auth.HandleRegister)
	v1.Post("/auth/login", h.deps.Auth.HandleLogin)
	v1.Post("/auth/logout", middleware.RequireAuth, h.deps.Auth.HandleLogout)

	// Calculators are open to anonymous visitors; premium inputs are gated
	// by the resolved entitlement.
	v1.Post("/calculators/late-fee", h.deps.Calculator.HandleLateFee)
	v1.Post("/calculators/roi", h.deps.Calculator.HandleROI)
	v1.Post("/calculators/portfolio", h.deps.Calculator.HandlePortfolio)

	authed := v1.Group("", middleware.RequireAuth)

	// Billing
	authed.Get("/billing/subscription", h.deps.Billing.HandleGetSubscription)
	authed.Post("/billing/checkout", h.deps.Billing.HandleCheckout)
	authed.Post("/billing/portal", h.deps.Billing.HandlePortal)
	authed.Post("/billing/cancel", h.deps.Billing.HandleCancel)

	// Properties and tenants
	authed.Get("/properties", h.deps.Property.HandleListProperties)
	authed.Post("/properties", h.deps.Property.HandleCreateProperty)
	authed.Delete("/properties/:id", h.deps.Property.HandleDeleteProperty)
	authed.Get("/tenants", h.deps.Property.HandleListTenants)
	authed.Post("/tenants", h.deps.Property.HandleCreateTenant)
	authed.Post("/tenants/:id/deactivate", h.deps.Property.HandleDeactivateTenant)

	// Rent
	authed.Get("/late-fee-rules", h.deps.Rent.HandleListLateFeeRules)
	authed.Post("/late-fee-rules", h.deps.Rent.HandleCreateLateFeeRule)
	authed.Get("/payments", h.deps.Rent.HandleListPayments)
	authed.Post("/payments", h.deps.Rent.HandleRecordPayment)

	// Maintenance
	authed.Get("/maintenance", h.deps.Maintenance.HandleList)
	authed.Post("/maintenance", h.deps.Maintenance.HandleCreate)
	authed.Put("/maintenance/:id/status", h.deps.Maintenance.HandleUpdateStatus)
}

func NewApiRouter(deps *Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}

// newRateLimiter limits requests per client IP. Counters live in the shared
// limiter storage under scope so separate limiters do not share a budget.
func newRateLimiter(deps *Dependencies, scope string, next func(*fiber.Ctx) bool) fiber.Handler {
	limit, window := deps.RateLimitMax, deps.RateLimitWindow
	if limit <= 0 {
		limit = 120
	}
	if window <= 0 {
		window = time.Minute
	}

	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: window,
		Storage:    deps.LimiterStorage,
		Next:       next,
		KeyGenerator: func(c *fiber.Ctx) string {
			return scope + ":" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limited",
				"message": "too many requests",
			})
		},
	})
}
