package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ManuelReschke/RentPulse/app/models"
	"github.com/ManuelReschke/RentPulse/internal/pkg/adminsession"
	"github.com/ManuelReschke/RentPulse/internal/pkg/session"
	"github.com/ManuelReschke/RentPulse/internal/pkg/usercontext"
	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUsers struct {
	users map[uint]*models.User
}

func (f *fakeUsers) CreateWithSubscription(user *models.User) error { return nil }

func (f *fakeUsers) GetByID(id uint) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) GetByEmail(email string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) UpdateLastLogin(id uint, at time.Time) error { return nil }

type fakeSubs struct {
	subs map[uint]*models.Subscription
	err  error
}

func (f *fakeSubs) Subscription(_ context.Context, userID uint) (*models.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.subs[userID]; ok {
		return s, nil
	}
	return models.NewFreeSubscription(userID), nil
}

func newUserApp(t *testing.T, users *fakeUsers, subs *fakeSubs) *fiber.App {
	t.Helper()
	mgr := session.NewManager(fibersession.New())
	app := fiber.New()
	app.Post("/login/:id", func(c *fiber.Ctx) error {
		id, _ := c.ParamsInt("id")
		return mgr.Login(c, uint(id))
	})
	app.Use(UserContextMiddleware(mgr, users, subs))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(usercontext.GetUserContext(c))
	})
	app.Get("/private", RequireAuth, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func login(t *testing.T, app *fiber.App, id string) *http.Cookie {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login/"+id, nil))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Cookies())
	return resp.Cookies()[0]
}

func whoami(t *testing.T, app *fiber.App, cookie *http.Cookie) usercontext.UserContext {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	var uc usercontext.UserContext
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&uc))
	return uc
}

func TestUserContextMiddleware(t *testing.T) {
	users := &fakeUsers{users: map[uint]*models.User{
		1: {ID: 1, Email: "jane@example.com", FirstName: "Jane", Status: models.STATUS_ACTIVE},
		2: {ID: 2, Email: "off@example.com", Status: models.STATUS_DISABLED},
	}}
	subs := &fakeSubs{subs: map[uint]*models.Subscription{
		1: {UserID: 1, Status: models.SubscriptionStatusActive},
	}}
	app := newUserApp(t, users, subs)

	anon := whoami(t, app, nil)
	assert.False(t, anon.IsLoggedIn)
	assert.False(t, anon.Entitlement.IsPremium)

	uc := whoami(t, app, login(t, app, "1"))
	assert.True(t, uc.IsLoggedIn)
	assert.Equal(t, uint(1), uc.UserID)
	assert.Equal(t, "jane@example.com", uc.Email)
	assert.True(t, uc.Entitlement.IsPremium)

	disabled := whoami(t, app, login(t, app, "2"))
	assert.False(t, disabled.IsLoggedIn)
}

func TestUserContextMiddlewareFallsBackToFree(t *testing.T) {
	users := &fakeUsers{users: map[uint]*models.User{
		1: {ID: 1, Email: "jane@example.com", Status: models.STATUS_ACTIVE},
	}}
	app := newUserApp(t, users, &fakeSubs{err: errors.New("db down")})

	uc := whoami(t, app, login(t, app, "1"))
	assert.True(t, uc.IsLoggedIn)
	assert.False(t, uc.Entitlement.IsPremium)
}

func TestRequireAuth(t *testing.T) {
	users := &fakeUsers{users: map[uint]*models.User{1: {ID: 1, Status: models.STATUS_ACTIVE}}}
	app := newUserApp(t, users, &fakeSubs{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/private", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(login(t, app, "1"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireAdminSession(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := adminsession.NewStore(client, time.Hour)

	app := fiber.New()
	app.Get("/admin/api/me", RequireAdminSession(store), func(c *fiber.Ctx) error {
		ac, ok := usercontext.GetAdminContext(c)
		require.True(t, ok)
		return c.JSON(ac)
	})

	sess, err := store.Create(context.Background(), 9, "ops@rentpulse.test", models.ADMIN_ROLE_ADMIN)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic " + sess.Token, fiber.StatusUnauthorized},
		{"unknown token", "Bearer 3f0e3a8c-2f8b-4c57-9d1f-0a4f7e6a1b2c", fiber.StatusUnauthorized},
		{"valid", "Bearer " + sess.Token, fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/api/me", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRequireCronSecret(t *testing.T) {
	newApp := func(secret string) *fiber.App {
		app := fiber.New()
		app.Post("/cron", RequireCronSecret(secret), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusNoContent)
		})
		return app
	}

	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{"valid", "s3cret", "Bearer s3cret", fiber.StatusNoContent},
		{"wrong", "s3cret", "Bearer nope", fiber.StatusUnauthorized},
		{"missing", "s3cret", "", fiber.StatusUnauthorized},
		{"not configured", "", "Bearer ", fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/cron", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := newApp(tt.secret).Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
