// Package calculator holds the pure financial calculators. Nothing here
// touches storage or entitlement; callers gate premium-only inputs.
package calculator

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const (
	FeeTypeFlat       = "flat"
	FeeTypePercentage = "percentage"
)

var hundred = decimal.NewFromInt(100)

type LateFeeInput struct {
	RentAmount      float64   `json:"rentAmount" validate:"finite,gt=0"`
	DueDate         time.Time `json:"dueDate" validate:"required"`
	PaymentDate     time.Time `json:"paymentDate" validate:"required"`
	GracePeriodDays int       `json:"gracePeriodDays" validate:"min=0"`
	FeeType         string    `json:"feeType" validate:"required,oneof=flat percentage"`
	FeeAmount       float64   `json:"feeAmount" validate:"finite,min=0"`
	MaxFee          *float64  `json:"maxFee,omitempty" validate:"omitempty,finite,min=0"`
}

type LateFeeResult struct {
	DaysLate int     `json:"daysLate"`
	LateFee  float64 `json:"lateFee"`
	TotalDue float64 `json:"totalDue"`
}

// LateFee computes the fee owed for a payment made after the grace period.
func LateFee(in LateFeeInput) (LateFeeResult, error) {
	if err := validateInput(in, ""); err != nil {
		return LateFeeResult{}, err
	}

	daysLate := DaysLate(in.DueDate, in.PaymentDate, in.GracePeriodDays)
	rent := decimal.NewFromFloat(in.RentAmount)
	fee := decimal.Zero

	if daysLate > 0 {
		amount := decimal.NewFromFloat(in.FeeAmount)
		switch in.FeeType {
		case FeeTypeFlat:
			fee = amount
		case FeeTypePercentage:
			fee = rent.Mul(amount).Div(hundred)
		}
		if in.MaxFee != nil {
			fee = decimal.Min(fee, decimal.NewFromFloat(*in.MaxFee))
		}
	}

	return LateFeeResult{
		DaysLate: daysLate,
		LateFee:  money(fee),
		TotalDue: money(rent.Add(fee)),
	}, nil
}

// DaysLate counts whole days past due, rounding partial days up, minus the grace period.
func DaysLate(due, paid time.Time, graceDays int) int {
	raw := int(math.Ceil(paid.Sub(due).Hours()/24)) - graceDays
	if raw < 0 {
		return 0
	}
	return raw
}
