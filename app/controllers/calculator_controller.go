package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/RentPulse/internal/pkg/apperr"
	"github.com/ManuelReschke/RentPulse/internal/pkg/calculator"
	"github.com/ManuelReschke/RentPulse/internal/pkg/entitlements"
	"github.com/ManuelReschke/RentPulse/internal/pkg/metrics"
	"github.com/ManuelReschke/RentPulse/internal/pkg/usercontext"
)

// CalculatorController exposes the late fee and ROI calculators.
type CalculatorController struct {
	metrics *metrics.Metrics
}

func NewCalculatorController() *CalculatorController {
	return &CalculatorController{metrics: metrics.Get()}
}

type lateFeeRequest struct {
	RentAmount      float64  `json:"rentAmount"`
	DueDate         string   `json:"dueDate"`
	PaymentDate     string   `json:"paymentDate"`
	GracePeriodDays int      `json:"gracePeriodDays"`
	FeeType         string   `json:"feeType"`
	FeeAmount       float64  `json:"feeAmount"`
	MaxFee          *float64 `json:"maxFee"`
}

func (r lateFeeRequest) input() (calculator.LateFeeInput, error) {
	due, err := parseDate("dueDate", r.DueDate)
	if err != nil {
		return calculator.LateFeeInput{}, err
	}
	paid, err := parseDate("paymentDate", r.PaymentDate)
	if err != nil {
		return calculator.LateFeeInput{}, err
	}
	return calculator.LateFeeInput{
		RentAmount:      r.RentAmount,
		DueDate:         due,
		PaymentDate:     paid,
		GracePeriodDays: r.GracePeriodDays,
		FeeType:         r.FeeType,
		FeeAmount:       r.FeeAmount,
		MaxFee:          r.MaxFee,
	}, nil
}

type portfolioRequest struct {
	Properties []calculator.ROIInput `json:"properties"`
}

func (cc *CalculatorController) fail(c *fiber.Ctx, name string, err error) error {
	cc.metrics.CalculatorRuns.WithLabelValues(name, string(apperr.KindOf(err))).Inc()
	return respondError(c, err)
}

func (cc *CalculatorController) ok(name string) {
	cc.metrics.CalculatorRuns.WithLabelValues(name, "ok").Inc()
}

// HandleLateFee computes a late fee. A fee cap is a premium feature.
func (cc *CalculatorController) HandleLateFee(c *fiber.Ctx) error {
	var req lateFeeRequest
	if err := c.BodyParser(&req); err != nil {
		return cc.fail(c, "late_fee", decodeError(err))
	}
	in, err := req.input()
	if err != nil {
		return cc.fail(c, "late_fee", err)
	}
	if in.MaxFee != nil {
		if err := entitlements.Require(usercontext.GetEntitlement(c), entitlements.FeatureLateFeeCap); err != nil {
			return cc.fail(c, "late_fee", err)
		}
	}

	res, err := calculator.LateFee(in)
	if err != nil {
		return cc.fail(c, "late_fee", err)
	}
	cc.ok("late_fee")
	return c.JSON(res)
}

func (cc *CalculatorController) HandleROI(c *fiber.Ctx) error {
	var in calculator.ROIInput
	if err := c.BodyParser(&in); err != nil {
		return cc.fail(c, "roi", decodeError(err))
	}
	res, err := calculator.ROI(in)
	if err != nil {
		return cc.fail(c, "roi", err)
	}
	cc.ok("roi")
	return c.JSON(res)
}

// HandlePortfolio analyses several properties at once; free users are
// limited to one.
func (cc *CalculatorController) HandlePortfolio(c *fiber.Ctx) error {
	var req portfolioRequest
	if err := c.BodyParser(&req); err != nil {
		return cc.fail(c, "portfolio", decodeError(err))
	}
	if err := entitlements.CheckCalculatorQuota(usercontext.GetEntitlement(c), len(req.Properties)); err != nil {
		cc.metrics.QuotaRejections.WithLabelValues("calculator").Inc()
		return cc.fail(c, "portfolio", err)
	}
	res, err := calculator.Portfolio(req.Properties)
	if err != nil {
		return cc.fail(c, "portfolio", err)
	}
	cc.ok("portfolio")
	return c.JSON(res)
}
