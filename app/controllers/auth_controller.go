package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ManuelReschke/RentPulse/app/models"
	"github.com/ManuelReschke/RentPulse/app/repository"
	"github.com/ManuelReschke/RentPulse/internal/pkg/apperr"
	"github.com/ManuelReschke/RentPulse/internal/pkg/session"
)

// AuthController handles landlord registration and session login.
type AuthController struct {
	users    repository.UserRepository
	sessions *session.Manager
}

func NewAuthController(users repository.UserRepository, sessions *session.Manager) *AuthController {
	return &AuthController{users: users, sessions: sessions}
}

type registerRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Email     string `json:"email" validate:"required,email,max=200"`
	Password  string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func userJSON(u *models.User) fiber.Map {
	return fiber.Map{
		"id":            u.ID,
		"email":         u.Email,
		"first_name":    u.FirstName,
		"last_name":     u.LastName,
		"status":        u.Status,
		"created_at":    u.CreatedAt.UTC().Format(time.RFC3339),
		"last_login_at": formatTimePtr(u.LastLoginAt),
	}
}

// HandleRegister creates the user with a free subscription and logs it in.
func (ac *AuthController) HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := ac.users.GetByEmail(email); err == nil {
		return respondError(c, apperr.Validation("email", "is already registered"))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return respondError(c, err)
	}

	user, err := models.CreateUser(req.FirstName, req.LastName, email, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrPasswordTooShort) {
			return respondError(c, apperr.Validation("password", err.Error()))
		}
		return respondError(c, err)
	}
	if err := ac.users.CreateWithSubscription(user); err != nil {
		return respondError(c, err)
	}
	if err := ac.sessions.Login(c, user.ID); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(userJSON(user))
}

func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	invalid := apperr.Authentication("auth.Login", "invalid e-mail or password")
	user, err := ac.users.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, invalid)
		}
		return respondError(c, err)
	}
	if !user.CheckPassword(req.Password) {
		return respondError(c, invalid)
	}
	if !user.IsActive() {
		return respondError(c, apperr.Forbidden("account is disabled"))
	}

	if err := ac.sessions.Login(c, user.ID); err != nil {
		return respondError(c, err)
	}
	now := time.Now()
	if err := ac.users.UpdateLastLogin(user.ID, now); err == nil {
		user.LastLoginAt = &now
	}

	return c.JSON(userJSON(user))
}

func (ac *AuthController) HandleLogout(c *fiber.Ctx) error {
	if err := ac.sessions.Logout(c); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
