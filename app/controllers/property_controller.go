package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/RentPulse/app/models"
	"github.com/ManuelReschke/RentPulse/app/repository"
	"github.com/ManuelReschke/RentPulse/internal/pkg/apperr"
	"github.com/ManuelReschke/RentPulse/internal/pkg/entitlements"
	"github.com/ManuelReschke/RentPulse/internal/pkg/metrics"
	"github.com/ManuelReschke/RentPulse/internal/pkg/usercontext"
)

// PropertyController manages a landlord's properties and tenants.
type PropertyController struct {
	properties repository.PropertyRepository
	tenants    repository.TenantRepository
	metrics    *metrics.Metrics
}

func NewPropertyController(properties repository.PropertyRepository, tenants repository.TenantRepository) *PropertyController {
	return &PropertyController{properties: properties, tenants: tenants, metrics: metrics.Get()}
}

type propertyRequest struct {
	Name          string   `json:"name" validate:"required,max=150"`
	Address       string   `json:"address" validate:"required,max=255"`
	City          string   `json:"city" validate:"max=100"`
	State         string   `json:"state" validate:"max=50"`
	ZipCode       string   `json:"zip_code" validate:"max=20"`
	PropertyType  string   `json:"property_type" validate:"omitempty,oneof=single_family multi_family condo apartment"`
	Units         int      `json:"units" validate:"omitempty,min=1"`
	PurchasePrice *float64 `json:"purchase_price" validate:"omitempty,gt=0"`
}

type tenantRequest struct {
	PropertyID  uint    `json:"property_id" validate:"required"`
	FirstName   string  `json:"first_name" validate:"required,max=100"`
	LastName    string  `json:"last_name" validate:"required,max=100"`
	Email       string  `json:"email" validate:"omitempty,email"`
	Phone       string  `json:"phone" validate:"max=50"`
	UnitNumber  string  `json:"unit_number" validate:"max=20"`
	LeaseStart  *string `json:"lease_start"`
	LeaseEnd    *string `json:"lease_end"`
	MonthlyRent float64 `json:"monthly_rent" validate:"gt=0"`
}

func (pc *PropertyController) HandleListProperties(c *fiber.Ctx) error {
	list, err := pc.properties.ListByUser(usercontext.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"properties": list})
}

// HandleCreateProperty enforces the free-tier property quota.
func (pc *PropertyController) HandleCreateProperty(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	var req propertyRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	count, err := pc.properties.CountByUser(userCtx.UserID)
	if err != nil {
		return respondError(c, err)
	}
	if err := entitlements.CheckPropertyQuota(userCtx.Entitlement, count); err != nil {
		pc.metrics.QuotaRejections.WithLabelValues("properties").Inc()
		return respondError(c, err)
	}

	property := &models.Property{
		UserID:       userCtx.UserID,
		Name:         req.Name,
		Address:      req.Address,
		City:         req.City,
		State:        req.State,
		ZipCode:      req.ZipCode,
		PropertyType: req.PropertyType,
		Units:        req.Units,
	}
	if property.PropertyType == "" {
		property.PropertyType = models.PROPERTY_TYPE_SINGLE_FAMILY
	}
	if property.Units == 0 {
		property.Units = 1
	}
	if req.PurchasePrice != nil {
		property.PurchasePrice = decimal.NewNullDecimal(decimal.NewFromFloat(*req.PurchasePrice))
	}
	if err := pc.properties.Create(property); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(property)
}

func (pc *PropertyController) HandleDeleteProperty(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := pc.properties.Delete(id, usercontext.GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (pc *PropertyController) HandleListTenants(c *fiber.Ctx) error {
	activeOnly := c.QueryBool("active", false)
	list, err := pc.tenants.ListByUser(usercontext.GetUserID(c), activeOnly)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"tenants": list})
}

// HandleCreateTenant enforces the free-tier active tenant quota.
func (pc *PropertyController) HandleCreateTenant(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	var req tenantRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	leaseStart, err := parseOptionalDate("lease_start", req.LeaseStart)
	if err != nil {
		return respondError(c, err)
	}
	leaseEnd, err := parseOptionalDate("lease_end", req.LeaseEnd)
	if err != nil {
		return respondError(c, err)
	}
	if leaseStart != nil && leaseEnd != nil && leaseEnd.Before(*leaseStart) {
		return respondError(c, apperr.Validation("lease_end", "must not be before lease_start"))
	}

	if _, err := pc.properties.GetByIDForUser(req.PropertyID, userCtx.UserID); err != nil {
		return respondError(c, err)
	}

	active, err := pc.tenants.CountActiveByUser(userCtx.UserID)
	if err != nil {
		return respondError(c, err)
	}
	if err := entitlements.CheckTenantQuota(userCtx.Entitlement, active); err != nil {
		pc.metrics.QuotaRejections.WithLabelValues("tenants").Inc()
		return respondError(c, err)
	}

	tenant := &models.Tenant{
		UserID:      userCtx.UserID,
		PropertyID:  req.PropertyID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		UnitNumber:  req.UnitNumber,
		LeaseStart:  leaseStart,
		LeaseEnd:    leaseEnd,
		MonthlyRent: decimal.NewFromFloat(req.MonthlyRent),
		IsActive:    true,
	}
	if err := pc.tenants.Create(tenant); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tenant)
}

// HandleDeactivateTenant frees a slot in the tenant quota.
func (pc *PropertyController) HandleDeactivateTenant(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := pc.tenants.Deactivate(id, usercontext.GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"id": id, "is_active": false, "deactivated_at": time.Now().UTC().Format(time.RFC3339)})
}
