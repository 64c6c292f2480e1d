package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ManuelReschke/RentPulse/app/models"
	"github.com/ManuelReschke/RentPulse/app/repository"
	"github.com/ManuelReschke/RentPulse/internal/pkg/adminsession"
	"github.com/ManuelReschke/RentPulse/internal/pkg/apperr"
	"github.com/ManuelReschke/RentPulse/internal/pkg/backoffice"
	"github.com/ManuelReschke/RentPulse/internal/pkg/statistics"
	"github.com/ManuelReschke/RentPulse/internal/pkg/usercontext"
)

// AdminActions is the back-office service used by the admin API.
type AdminActions interface {
	GrantPremium(ctx context.Context, userID, adminID uint, expiresAt *time.Time) (*backoffice.GrantResult, error)
	RevokePremium(ctx context.Context, userID, adminID uint) (*models.Subscription, error)
	SetUserActive(ctx context.Context, userID, adminID uint, active bool) (*models.User, error)
	ListUsers(ctx context.Context, query string, offset, limit int) ([]backoffice.UserSummary, int64, error)
	ListAuditLog(ctx context.Context, limit int) ([]models.AdminAuditLog, error)
}

type StatsProvider interface {
	AdminStats(ctx context.Context) (statistics.AdminStats, error)
	Invalidate(ctx context.Context) error
}

// AdminSessions issues and revokes back-office tokens.
type AdminSessions interface {
	Create(ctx context.Context, adminID uint, email, role string) (*adminsession.Session, error)
	Revoke(ctx context.Context, token string) error
}

// AdminController serves the back-office JSON API. Every route except
// login runs behind RequireAdminSession.
type AdminController struct {
	actions  AdminActions
	stats    StatsProvider
	admins   repository.AdminUserRepository
	sessions AdminSessions
}

func NewAdminController(actions AdminActions, stats StatsProvider, admins repository.AdminUserRepository, sessions AdminSessions) *AdminController {
	return &AdminController{actions: actions, stats: stats, admins: admins, sessions: sessions}
}

type adminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type grantPremiumRequest struct {
	ExpiresAt *string `json:"expires_at"`
}

type userStatusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// HandleLogin exchanges admin credentials for a bearer token.
func (ac *AdminController) HandleLogin(c *fiber.Ctx) error {
	var req adminLoginRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	invalid := apperr.Authentication("admin.Login", "invalid e-mail or password")
	admin, err := ac.admins.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, invalid)
		}
		return respondError(c, err)
	}
	if !admin.IsActive || !admin.CheckPassword(req.Password) {
		return respondError(c, invalid)
	}

	sess, err := ac.sessions.Create(c.UserContext(), admin.ID, admin.Email, admin.Role)
	if err != nil {
		return respondError(c, err)
	}
	_ = ac.admins.UpdateLastLogin(admin.ID, time.Now())

	return c.JSON(fiber.Map{
		"token":      sess.Token,
		"expires_at": sess.ExpiresAt.UTC().Format(time.RFC3339),
		"admin": fiber.Map{
			"id":    admin.ID,
			"email": admin.Email,
			"name":  admin.Name,
			"role":  admin.Role,
		},
	})
}

func (ac *AdminController) HandleLogout(c *fiber.Ctx) error {
	admin, _ := usercontext.GetAdminContext(c)
	if err := ac.sessions.Revoke(c.UserContext(), admin.Token); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (ac *AdminController) HandleMe(c *fiber.Ctx) error {
	admin, _ := usercontext.GetAdminContext(c)
	return c.JSON(fiber.Map{"id": admin.AdminID, "email": admin.Email, "role": admin.Role})
}

func (ac *AdminController) HandleUsers(c *fiber.Ctx) error {
	users, total, err := ac.actions.ListUsers(c.UserContext(), strings.TrimSpace(c.Query("q")), c.QueryInt("offset", 0), c.QueryInt("limit", 50))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"users": users, "total": total})
}

// HandleGrantPremium grants complimentary premium, optionally until expires_at.
func (ac *AdminController) HandleGrantPremium(c *fiber.Ctx) error {
	userID, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req grantPremiumRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
	}
	expiresAt, err := parseOptionalDate("expires_at", req.ExpiresAt)
	if err != nil {
		return respondError(c, err)
	}

	admin, _ := usercontext.GetAdminContext(c)
	res, err := ac.actions.GrantPremium(c.UserContext(), userID, admin.AdminID, expiresAt)
	if err != nil {
		return respondError(c, err)
	}
	ac.invalidateStats(c)
	return c.JSON(res)
}

func (ac *AdminController) HandleRevokePremium(c *fiber.Ctx) error {
	userID, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}
	admin, _ := usercontext.GetAdminContext(c)
	sub, err := ac.actions.RevokePremium(c.UserContext(), userID, admin.AdminID)
	if err != nil {
		return respondError(c, err)
	}
	ac.invalidateStats(c)
	return c.JSON(fiber.Map{"subscription": sub})
}

// HandleUserStatus enables or disables a landlord account.
func (ac *AdminController) HandleUserStatus(c *fiber.Ctx) error {
	userID, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req userStatusRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	admin, _ := usercontext.GetAdminContext(c)
	user, err := ac.actions.SetUserActive(c.UserContext(), userID, admin.AdminID, *req.Active)
	if err != nil {
		return respondError(c, err)
	}
	ac.invalidateStats(c)
	return c.JSON(fiber.Map{"id": user.ID, "email": user.Email, "status": user.Status})
}

func (ac *AdminController) HandleAuditLog(c *fiber.Ctx) error {
	entries, err := ac.actions.ListAuditLog(c.UserContext(), c.QueryInt("limit", 100))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"entries": entries})
}

func (ac *AdminController) HandleStats(c *fiber.Ctx) error {
	stats, err := ac.stats.AdminStats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

func (ac *AdminController) invalidateStats(c *fiber.Ctx) {
	if ac.stats == nil {
		return
	}
	_ = ac.stats.Invalidate(c.UserContext())
}
