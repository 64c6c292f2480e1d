package session

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/ManuelReschke/RentPulse/internal/pkg/cache"
)

// KeyUserID is the session key holding the logged-in user's id.
const KeyUserID = "user_id"

// NewRedisStore creates the user session store on Redis, in a database
// separate from the cache.
func NewRedisStore(cfg cache.Config, database int, ttl time.Duration, secure bool) *session.Store {
	return session.New(session.Config{
		Storage:        cache.NewStorage(cfg, database),
		CookieHTTPOnly: true,
		CookieSecure:   secure,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		Expiration:     ttl,
		KeyLookup:      "cookie:session_id",
	})
}

// Manager reads and writes the authenticated user on a session store.
type Manager struct {
	store *session.Store
}

func NewManager(store *session.Store) *Manager {
	return &Manager{store: store}
}

// Login rotates the session id and binds it to userID.
func (m *Manager) Login(c *fiber.Ctx, userID uint) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("failed to regenerate session: %w", err)
	}
	sess.Set(KeyUserID, userID)
	return sess.Save()
}

func (m *Manager) Logout(c *fiber.Ctx) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	return sess.Destroy()
}

// UserID returns the logged-in user, or false for anonymous requests.
func (m *Manager) UserID(c *fiber.Ctx) (uint, bool) {
	sess, err := m.store.Get(c)
	if err != nil {
		return 0, false
	}
	switch v := sess.Get(KeyUserID).(type) {
	case uint:
		return v, v != 0
	case int:
		return uint(v), v > 0
	default:
		return 0, false
	}
}
