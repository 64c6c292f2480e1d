package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/RentPulse/app/models"
	"github.com/ManuelReschke/RentPulse/app/repository"
	"github.com/ManuelReschke/RentPulse/internal/pkg/apperr"
	"github.com/ManuelReschke/RentPulse/internal/pkg/usercontext"
)

type MaintenanceController struct {
	items      repository.MaintenanceRepository
	properties repository.PropertyRepository
	now        func() time.Time
}

func NewMaintenanceController(items repository.MaintenanceRepository, properties repository.PropertyRepository) *MaintenanceController {
	return &MaintenanceController{items: items, properties: properties, now: time.Now}
}

type maintenanceRequest struct {
	PropertyID  uint    `json:"property_id" validate:"required"`
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=5000"`
	Priority    string  `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	NextDueDate *string `json:"next_due_date"`
}

type maintenanceStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed"`
}

func (mc *MaintenanceController) HandleList(c *fiber.Ctx) error {
	status := c.Query("status")
	switch status {
	case "", models.MAINTENANCE_STATUS_PENDING, models.MAINTENANCE_STATUS_IN_PROGRESS, models.MAINTENANCE_STATUS_COMPLETED:
	default:
		return respondError(c, apperr.Validation("status", "must be one of pending in_progress completed"))
	}
	items, err := mc.items.ListByUser(usercontext.GetUserID(c), status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": items})
}

func (mc *MaintenanceController) HandleCreate(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	var req maintenanceRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	due, err := parseOptionalDate("next_due_date", req.NextDueDate)
	if err != nil {
		return respondError(c, err)
	}
	if _, err := mc.properties.GetByIDForUser(req.PropertyID, userID); err != nil {
		return respondError(c, err)
	}

	item := &models.MaintenanceItem{
		UserID:      userID,
		PropertyID:  req.PropertyID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      models.MAINTENANCE_STATUS_PENDING,
		NextDueDate: due,
	}
	if item.Priority == "" {
		item.Priority = models.MAINTENANCE_PRIORITY_MEDIUM
	}
	if err := mc.items.Create(item); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// HandleUpdateStatus moves an item through pending, in_progress and
// completed. Completing stamps CompletedAt; reopening clears it.
func (mc *MaintenanceController) HandleUpdateStatus(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req maintenanceStatusRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	item, err := mc.items.GetByIDForUser(id, usercontext.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	item.Status = req.Status
	if req.Status == models.MAINTENANCE_STATUS_COMPLETED {
		if item.CompletedAt == nil {
			now := mc.now().UTC()
			item.CompletedAt = &now
		}
	} else {
		item.CompletedAt = nil
	}
	if err := mc.items.Update(item); err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}
