package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ManuelReschke/RentPulse/app/models"
	"github.com/ManuelReschke/RentPulse/app/repository"
	"github.com/ManuelReschke/RentPulse/internal/pkg/apperr"
	"github.com/ManuelReschke/RentPulse/internal/pkg/calculator"
	"github.com/ManuelReschke/RentPulse/internal/pkg/entitlements"
	"github.com/ManuelReschke/RentPulse/internal/pkg/usercontext"
)

// RentController records rent payments and the late fee rules applied to them.
type RentController struct {
	repos *repository.Repositories
}

func NewRentController(repos *repository.Repositories) *RentController {
	return &RentController{repos: repos}
}

type lateFeeRuleRequest struct {
	PropertyID      *uint    `json:"property_id"`
	GracePeriodDays int      `json:"grace_period_days" validate:"min=0,max=60"`
	FeeType         string   `json:"fee_type" validate:"required,oneof=flat percentage"`
	FeeAmount       float64  `json:"fee_amount" validate:"min=0"`
	MaxFee          *float64 `json:"max_fee" validate:"omitempty,min=0"`
}

type paymentRequest struct {
	TenantID      uint     `json:"tenant_id" validate:"required"`
	RentAmount    *float64 `json:"rent_amount" validate:"omitempty,gt=0"`
	DueDate       string   `json:"due_date" validate:"required"`
	PaymentDate   string   `json:"payment_date" validate:"required"`
	PaymentMethod string   `json:"payment_method" validate:"omitempty,oneof=cash check bank_transfer card other"`
	Notes         string   `json:"notes" validate:"max=2000"`
}

func (rc *RentController) HandleListLateFeeRules(c *fiber.Ctx) error {
	rules, err := rc.repos.LateFeeRule.ListByUser(usercontext.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"rules": rules})
}

// HandleCreateLateFeeRule stores a rule; a fee cap requires premium.
func (rc *RentController) HandleCreateLateFeeRule(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	var req lateFeeRuleRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.FeeType == models.FEE_TYPE_PERCENTAGE && req.FeeAmount > 100 {
		return respondError(c, apperr.Validation("fee_amount", "percentage must be at most 100"))
	}
	if req.MaxFee != nil {
		if err := entitlements.Require(userCtx.Entitlement, entitlements.FeatureLateFeeCap); err != nil {
			return respondError(c, err)
		}
	}
	if req.PropertyID != nil {
		if _, err := rc.repos.Property.GetByIDForUser(*req.PropertyID, userCtx.UserID); err != nil {
			return respondError(c, err)
		}
	}

	rule := &models.LateFeeRule{
		UserID:          userCtx.UserID,
		PropertyID:      req.PropertyID,
		GracePeriodDays: req.GracePeriodDays,
		FeeType:         req.FeeType,
		FeeAmount:       decimal.NewFromFloat(req.FeeAmount),
		IsActive:        true,
	}
	if req.MaxFee != nil {
		rule.MaxFee = decimal.NewNullDecimal(decimal.NewFromFloat(*req.MaxFee))
	}
	if err := rc.repos.LateFeeRule.Create(rule); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(rule)
}

func (rc *RentController) HandleListPayments(c *fiber.Ctx) error {
	payments, err := rc.repos.Payment.ListByUser(usercontext.GetUserID(c), c.QueryInt("limit", 100))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"payments": payments})
}

// HandleRecordPayment stores a payment with the late fee computed from the
// applicable rule. Without a rule no fee is charged.
func (rc *RentController) HandleRecordPayment(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	var req paymentRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	due, err := parseDate("due_date", req.DueDate)
	if err != nil {
		return respondError(c, err)
	}
	paid, err := parseDate("payment_date", req.PaymentDate)
	if err != nil {
		return respondError(c, err)
	}

	tenant, err := rc.repos.Tenant.GetByIDForUser(req.TenantID, userID)
	if err != nil {
		return respondError(c, err)
	}
	rent := tenant.MonthlyRent.InexactFloat64()
	if req.RentAmount != nil {
		rent = *req.RentAmount
	}

	in := calculator.LateFeeInput{
		RentAmount:  rent,
		DueDate:     due,
		PaymentDate: paid,
		FeeType:     calculator.FeeTypeFlat,
	}
	rule, err := rc.repos.LateFeeRule.FindApplicable(userID, tenant.PropertyID)
	switch {
	case err == nil:
		in.GracePeriodDays = rule.GracePeriodDays
		in.FeeType = rule.FeeType
		in.FeeAmount = rule.FeeAmount.InexactFloat64()
		if rule.MaxFee.Valid {
			maxFee := rule.MaxFee.Decimal.InexactFloat64()
			in.MaxFee = &maxFee
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return respondError(c, err)
	}

	res, err := calculator.LateFee(in)
	if err != nil {
		return respondError(c, err)
	}

	payment := &models.Payment{
		UserID:        userID,
		TenantID:      tenant.ID,
		RentAmount:    decimal.NewFromFloat(rent),
		DueDate:       due,
		PaymentDate:   paid,
		DaysLate:      res.DaysLate,
		LateFee:       decimal.NewFromFloat(res.LateFee),
		TotalDue:      decimal.NewFromFloat(res.TotalDue),
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}
	if err := rc.repos.Payment.Create(payment); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(payment)
}
