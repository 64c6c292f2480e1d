package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/RentPulse/internal/pkg/apperr"
	"github.com/ManuelReschke/RentPulse/internal/pkg/entitlements"
	"github.com/ManuelReschke/RentPulse/internal/pkg/logging"
	"github.com/ManuelReschke/RentPulse/internal/pkg/usercontext"
)

var (
	freeEntitlement    = entitlements.Entitlement{Status: "free", ReasonsBlocked: []string{entitlements.ReasonFreeTier}}
	premiumEntitlement = entitlements.Entitlement{Status: "active", IsPremium: true}
)

// newUserApp returns an app whose requests run as userID with ent.
func newUserApp(userID uint, ent entitlements.Entitlement) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		usercontext.SetUserContext(c, usercontext.UserContext{
			UserID:      userID,
			Email:       "landlord@example.com",
			IsLoggedIn:  true,
			Entitlement: ent,
		})
		return c.Next()
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(b)
		}
		reader = bytes.NewBufferString(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	out := map[string]interface{}{}
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 {
		_ = json.Unmarshal(data, &out)
	}
	return resp, out
}

func TestFormatTimePtr(t *testing.T) {
	assert.Nil(t, formatTimePtr(nil))

	now := time.Date(2024, 5, 1, 12, 34, 56, 0, time.Local)
	formatted := formatTimePtr(&now)
	assert.IsType(t, "", formatted)
	assert.Equal(t, now.UTC().Format(time.RFC3339), formatted)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{name: "date only", value: "2024-03-01", want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{name: "rfc3339", value: "2024-03-01T10:00:00Z", want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{name: "surrounding spaces", value: " 2024-03-01 ", want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{name: "garbage", value: "next tuesday", wantErr: true},
		{name: "empty", value: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDate("dueDate", tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperr.ErrValidation)
				assert.Equal(t, "dueDate", apperr.FieldOf(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got))
		})
	}
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
		wantField  string
	}{
		{name: "validation", err: apperr.Validation("rentAmount", "must be greater than 0"), wantStatus: 400, wantKind: "validation_error", wantField: "rentAmount"},
		{name: "record not found", err: gorm.ErrRecordNotFound, wantStatus: 404, wantKind: "not_found"},
		{name: "wrapped record not found", err: fmt.Errorf("load: %w", gorm.ErrRecordNotFound), wantStatus: 404, wantKind: "not_found"},
		{name: "invalid state", err: apperr.InvalidState("op", "not granted"), wantStatus: 409, wantKind: "invalid_state"},
		{name: "quota", err: apperr.QuotaExceeded("limit reached"), wantStatus: 403, wantKind: "quota_exceeded"},
		{name: "external", err: apperr.External("stripe", errors.New("timeout")), wantStatus: 502, wantKind: "external_service_error"},
		{name: "unknown", err: errors.New("boom"), wantStatus: 500, wantKind: "internal_server_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return respondError(c, tt.err) })

			resp, body := doJSON(t, app, http.MethodGet, "/", nil)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantKind, body["error"])
			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, body["field"])
			} else {
				assert.NotContains(t, body, "field")
			}
		})
	}
}

func TestRespondErrorHidesInternalDetails(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return respondError(c, errors.New("dial tcp 10.0.0.5:3306: connection refused"))
	})

	_, body := doJSON(t, app, http.MethodGet, "/", nil)
	assert.Equal(t, "internal server error", body["message"])
}

func TestParseBodyReportsFirstInvalidField(t *testing.T) {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		var req registerRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, body := doJSON(t, app, http.MethodPost, "/", map[string]string{"first_name": "Ann", "email": "not-an-email", "password": "longenough"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "email", body["field"])

	resp, body = doJSON(t, app, http.MethodPost, "/", "{broken")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "body", body["field"])
}

func TestParseBodyNamesMistypedField(t *testing.T) {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		var req registerRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, body := doJSON(t, app, http.MethodPost, "/", `{"first_name":42,"email":"a@example.com","password":"longenough"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", body["error"])
	assert.Equal(t, "first_name", body["field"])
	assert.Equal(t, "must be a string", body["message"])
}

func TestDecodeError(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		dst       interface{}
		wantField string
	}{
		{name: "number as string", body: `{"rentAmount":"abc"}`, dst: &lateFeeRequest{}, wantField: "rentAmount"},
		{name: "nested field", body: `{"properties":[{"downPayment":"lots"}]}`, dst: &portfolioRequest{}, wantField: "downPayment"},
		{name: "syntax error", body: `{"rentAmount":`, dst: &lateFeeRequest{}, wantField: "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := decodeError(json.Unmarshal([]byte(tt.body), tt.dst))
			assert.ErrorIs(t, err, apperr.ErrValidation)
			assert.Equal(t, tt.wantField, apperr.FieldOf(err))
		})
	}
}

func TestRespondErrorLogsInternalFailure(t *testing.T) {
	var buf bytes.Buffer
	logging.InitWithWriter(logging.Config{Format: "json", Level: "info"}, &buf)
	t.Cleanup(func() { logging.InitWithWriter(logging.Config{Format: "json", Level: "info"}, io.Discard) })

	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return respondError(c, errors.New("deadlock found"))
	})
	app.Get("/upstream", func(c *fiber.Ctx) error {
		return respondError(c, apperr.External("billing.CreateCheckoutSession", errors.New("stripe timeout")))
	})

	resp, _ := doJSON(t, app, http.MethodGet, "/boom", nil)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodGet, "/upstream", nil)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	out := buf.String()
	assert.Contains(t, out, `"component":"http"`)
	assert.Contains(t, out, "request failed")
	assert.Contains(t, out, "deadlock found")
	assert.Contains(t, out, "external service failed")
}
