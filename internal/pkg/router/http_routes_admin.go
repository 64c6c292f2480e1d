package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/RentPulse/internal/pkg/middleware"
)

// AdminRouter serves the back-office API. Requests authenticate with the
// bearer token issued by POST /admin/api/auth.
type AdminRouter struct {
	deps *Dependencies
}

func (h AdminRouter) InstallRouter(app *fiber.App) {
	admin := app.Group("/admin/api")
	admin.Post("/auth", newRateLimiter(h.deps, "admin-auth", nil), h.deps.Admin.HandleLogin)

	adminGroup := admin.Group("", middleware.RequireAdminSession(h.deps.AdminSessions))
	adminGroup.Delete("/auth", h.deps.Admin.HandleLogout)
	adminGroup.Get("/me", h.deps.Admin.HandleMe)
	adminGroup.Get("/stats", h.deps.Admin.HandleStats)
	adminGroup.Get("/audit-log", h.deps.Admin.HandleAuditLog)

	// User management
	adminGroup.Get("/users", h.deps.Admin.HandleUsers)
	adminGroup.Post("/users/:id/grant-premium", h.deps.Admin.HandleGrantPremium)
	adminGroup.Post("/users/:id/revoke-premium", h.deps.Admin.HandleRevokePremium)
	adminGroup.Put("/users/:id/status", h.deps.Admin.HandleUserStatus)
}

func NewAdminRouter(deps *Dependencies) *AdminRouter {
	return &AdminRouter{deps: deps}
}
