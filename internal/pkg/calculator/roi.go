package calculator

import (
	"fmt"

	"github.com/ManuelReschke/RentPulse/internal/pkg/apperr"
	"github.com/shopspring/decimal"
)

const (
	BandGood     = "good"
	BandModerate = "moderate"
	BandLow      = "low"
)

var (
	twelve        = decimal.NewFromInt(12)
	goodThreshold = decimal.NewFromInt(8)
	lowThreshold  = decimal.NewFromInt(5)
)

type ROIInput struct {
	PurchasePrice   float64  `json:"purchasePrice" validate:"finite,gt=0"`
	DownPayment     float64  `json:"downPayment" validate:"finite,gt=0"`
	MonthlyRent     float64  `json:"monthlyRent" validate:"finite,min=0"`
	MonthlyExpenses float64  `json:"monthlyExpenses" validate:"finite,min=0"`
	VacancyRate     float64  `json:"vacancyRate" validate:"finite,min=0,max=100"`
	// Accepted for forward compatibility; not part of the return figures.
	AppreciationRate *float64 `json:"appreciationRate,omitempty" validate:"omitempty,finite"`
}

type ROIResult struct {
	CashOnCashReturn float64 `json:"cashOnCashReturn"`
	CapRate          float64 `json:"capRate"`
	MonthlyNetIncome float64 `json:"monthlyNetIncome"`
	AnnualNetIncome  float64 `json:"annualNetIncome"`
	TotalInvestment  float64 `json:"totalInvestment"`
	Band             string  `json:"band"`
}

type PortfolioResult struct {
	Properties       []ROIResult `json:"properties"`
	CashOnCashReturn float64     `json:"cashOnCashReturn"`
	CapRate          float64     `json:"capRate"`
	MonthlyNetIncome float64     `json:"monthlyNetIncome"`
	AnnualNetIncome  float64     `json:"annualNetIncome"`
	TotalInvestment  float64     `json:"totalInvestment"`
	Band             string      `json:"band"`
}

type roiFigures struct {
	monthly, annual, invested, price decimal.Decimal
}

// ROI computes cash-on-cash return and cap rate for one property.
func ROI(in ROIInput) (ROIResult, error) {
	if err := validateInput(in, ""); err != nil {
		return ROIResult{}, err
	}
	f := figures(in)
	return f.result(), nil
}

// Portfolio aggregates several properties into blended returns.
func Portfolio(inputs []ROIInput) (PortfolioResult, error) {
	if len(inputs) == 0 {
		return PortfolioResult{}, apperr.Validation("properties", "at least one property is required")
	}

	total := roiFigures{monthly: decimal.Zero, annual: decimal.Zero, invested: decimal.Zero, price: decimal.Zero}
	out := PortfolioResult{Properties: make([]ROIResult, 0, len(inputs))}
	for i, in := range inputs {
		if err := validateInput(in, fmt.Sprintf("properties[%d]", i)); err != nil {
			return PortfolioResult{}, err
		}
		f := figures(in)
		out.Properties = append(out.Properties, f.result())
		total.monthly = total.monthly.Add(f.monthly)
		total.annual = total.annual.Add(f.annual)
		total.invested = total.invested.Add(f.invested)
		total.price = total.price.Add(f.price)
	}

	agg := total.result()
	out.CashOnCashReturn = agg.CashOnCashReturn
	out.CapRate = agg.CapRate
	out.MonthlyNetIncome = agg.MonthlyNetIncome
	out.AnnualNetIncome = agg.AnnualNetIncome
	out.TotalInvestment = agg.TotalInvestment
	out.Band = agg.Band
	return out, nil
}

func figures(in ROIInput) roiFigures {
	rent := decimal.NewFromFloat(in.MonthlyRent)
	occupancy := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(in.VacancyRate).Div(hundred))
	monthly := rent.Mul(occupancy).Sub(decimal.NewFromFloat(in.MonthlyExpenses))
	return roiFigures{
		monthly:  monthly,
		annual:   monthly.Mul(twelve),
		invested: decimal.NewFromFloat(in.DownPayment),
		price:    decimal.NewFromFloat(in.PurchasePrice),
	}
}

// result assumes invested and price are positive.
func (f roiFigures) result() ROIResult {
	coc := f.annual.Div(f.invested).Mul(hundred)
	return ROIResult{
		CashOnCashReturn: money(coc),
		CapRate:          money(f.annual.Div(f.price).Mul(hundred)),
		MonthlyNetIncome: money(f.monthly),
		AnnualNetIncome:  money(f.annual),
		TotalInvestment:  money(f.invested),
		Band:             Band(coc),
	}
}

// Band labels a cash-on-cash return for display.
func Band(cashOnCash decimal.Decimal) string {
	switch {
	case cashOnCash.GreaterThanOrEqual(goodThreshold):
		return BandGood
	case cashOnCash.GreaterThanOrEqual(lowThreshold):
		return BandModerate
	default:
		return BandLow
	}
}
