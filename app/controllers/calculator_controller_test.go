package controllers

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/RentPulse/internal/pkg/entitlements"
)

func newCalculatorApp(ent entitlements.Entitlement) *fiber.App {
	cc := NewCalculatorController()
	app := newUserApp(1, ent)
	app.Post("/calculators/late-fee", cc.HandleLateFee)
	app.Post("/calculators/roi", cc.HandleROI)
	app.Post("/calculators/portfolio", cc.HandlePortfolio)
	return app
}

func TestLateFeeEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		ent        entitlements.Entitlement
		body       interface{}
		wantStatus int
		wantFee    float64
		wantKind   string
		wantField  string
	}{
		{
			name: "flat fee",
			ent:  freeEntitlement,
			body: map[string]interface{}{
				"rentAmount": 1500, "dueDate": "2025-01-01", "paymentDate": "2025-01-08",
				"gracePeriodDays": 5, "feeType": "flat", "feeAmount": 75,
			},
			wantStatus: 200,
			wantFee:    75,
		},
		{
			name: "cap requires premium",
			ent:  freeEntitlement,
			body: map[string]interface{}{
				"rentAmount": 1500, "dueDate": "2025-01-01", "paymentDate": "2025-01-08",
				"feeType": "percentage", "feeAmount": 10, "maxFee": 100,
			},
			wantStatus: 403,
			wantKind:   "forbidden",
		},
		{
			name: "premium cap applies",
			ent:  premiumEntitlement,
			body: map[string]interface{}{
				"rentAmount": 1500, "dueDate": "2025-01-01", "paymentDate": "2025-01-08",
				"feeType": "percentage", "feeAmount": 10, "maxFee": 100,
			},
			wantStatus: 200,
			wantFee:    100,
		},
		{
			name: "zero rent",
			ent:  freeEntitlement,
			body: map[string]interface{}{
				"rentAmount": 0, "dueDate": "2025-01-01", "paymentDate": "2025-01-08",
				"feeType": "flat", "feeAmount": 75,
			},
			wantStatus: 400,
			wantKind:   "validation_error",
			wantField:  "rentAmount",
		},
		{
			name: "rent amount not a number",
			ent:  freeEntitlement,
			body: map[string]interface{}{
				"rentAmount": "abc", "dueDate": "2025-01-01", "paymentDate": "2025-01-08",
				"feeType": "flat", "feeAmount": 75,
			},
			wantStatus: 400,
			wantKind:   "validation_error",
			wantField:  "rentAmount",
		},
		{
			name: "fee amount not a number",
			ent:  freeEntitlement,
			body: map[string]interface{}{
				"rentAmount": 1500, "dueDate": "2025-01-01", "paymentDate": "2025-01-08",
				"feeType": "flat", "feeAmount": "ten",
			},
			wantStatus: 400,
			wantKind:   "validation_error",
			wantField:  "feeAmount",
		},
		{
			name:       "malformed body",
			ent:        freeEntitlement,
			body:       "{",
			wantStatus: 400,
			wantKind:   "validation_error",
			wantField:  "body",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := doJSON(t, newCalculatorApp(tt.ent), http.MethodPost, "/calculators/late-fee", tt.body)
			require.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == 200 {
				assert.InDelta(t, tt.wantFee, out["lateFee"], 0.001)
				return
			}
			assert.Equal(t, tt.wantKind, out["error"])
			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, out["field"])
			}
		})
	}
}

func TestROIEndpoint(t *testing.T) {
	app := newCalculatorApp(freeEntitlement)

	resp, out := doJSON(t, app, http.MethodPost, "/calculators/roi", map[string]interface{}{
		"purchasePrice": 200000, "downPayment": 40000, "monthlyRent": 2000,
		"monthlyExpenses": 800, "vacancyRate": 5,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.InDelta(t, 1100, out["monthlyNetIncome"], 0.001)
	assert.InDelta(t, 33, out["cashOnCashReturn"], 0.001)
	assert.InDelta(t, 6.6, out["capRate"], 0.001)
	assert.Equal(t, "good", out["band"])

	resp, out = doJSON(t, app, http.MethodPost, "/calculators/roi", map[string]interface{}{
		"purchasePrice": 200000, "downPayment": 0, "monthlyRent": 2000,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "downPayment", out["field"])

	resp, out = doJSON(t, app, http.MethodPost, "/calculators/roi", map[string]interface{}{
		"purchasePrice": 200000, "downPayment": "lots", "monthlyRent": 2000,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", out["error"])
	assert.Equal(t, "downPayment", out["field"])
	assert.Equal(t, "must be a number", out["message"])
}

func TestPortfolioEndpointQuota(t *testing.T) {
	property := map[string]interface{}{
		"purchasePrice": 100000, "downPayment": 20000, "monthlyRent": 1000,
		"monthlyExpenses": 400, "vacancyRate": 0,
	}
	body := map[string]interface{}{"properties": []interface{}{property, property}}

	resp, out := doJSON(t, newCalculatorApp(freeEntitlement), http.MethodPost, "/calculators/portfolio", body)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "quota_exceeded", out["error"])

	resp, _ = doJSON(t, newCalculatorApp(premiumEntitlement), http.MethodPost, "/calculators/portfolio", body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	bad := map[string]interface{}{"properties": []interface{}{map[string]interface{}{
		"purchasePrice": 100000, "downPayment": "twenty", "monthlyRent": 1000,
	}}}
	resp, out = doJSON(t, newCalculatorApp(premiumEntitlement), http.MethodPost, "/calculators/portfolio", bad)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "downPayment", out["field"])
}
