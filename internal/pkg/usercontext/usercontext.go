package usercontext

import (
	"github.com/ManuelReschke/RentPulse/internal/pkg/entitlements"
	"github.com/gofiber/fiber/v2"
)

// UserContext represents the complete user context for a request
type UserContext struct {
	UserID      uint                     `json:"user_id"`
	Email       string                   `json:"email"`
	Name        string                   `json:"name"`
	IsLoggedIn  bool                     `json:"is_logged_in"`
	Entitlement entitlements.Entitlement `json:"entitlement"`
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(KeyUserContext).(UserContext); ok {
		return ctx
	}
	return UserContext{IsLoggedIn: false}
}

func SetUserContext(c *fiber.Ctx, uc UserContext) {
	c.Locals(KeyUserContext, uc)
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// GetUserID returns the current user's ID, or 0 if not logged in
func GetUserID(c *fiber.Ctx) uint {
	return GetUserContext(c).UserID
}

// GetEntitlement returns the resolved entitlement of the current user.
func GetEntitlement(c *fiber.Ctx) entitlements.Entitlement {
	return GetUserContext(c).Entitlement
}

// AdminContext identifies the back-office account behind an admin request.
type AdminContext struct {
	AdminID uint   `json:"admin_id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Token   string `json:"-"`
}

func SetAdminContext(c *fiber.Ctx, ac AdminContext) {
	c.Locals(KeyAdminContext, ac)
}

// GetAdminContext reports false when the request carries no valid admin token.
func GetAdminContext(c *fiber.Ctx) (AdminContext, bool) {
	ac, ok := c.Locals(KeyAdminContext).(AdminContext)
	return ac, ok && ac.AdminID != 0
}
