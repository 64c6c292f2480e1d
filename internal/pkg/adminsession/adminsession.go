// Package adminsession issues opaque bearer tokens for back-office logins.
// Tokens live in Redis and expire after TTL; every admin request carries its
// token explicitly.
package adminsession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuelReschke/RentPulse/internal/pkg/apperr"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL = 24 * time.Hour
	keyPrefix  = "admin_session:"
)

// Session is the state bound to a token.
type Session struct {
	Token     string    `json:"-"`
	AdminID   uint      `json:"admin_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Store struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl, now: time.Now}
}

func key(token string) string {
	return keyPrefix + token
}

// Create starts a session for the admin and returns it with a fresh token.
func (s *Store) Create(ctx context.Context, adminID uint, email, role string) (*Session, error) {
	now := s.now().UTC()
	sess := &Session{
		Token:     uuid.NewString(),
		AdminID:   adminID,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := s.client.Set(ctx, key(sess.Token), data, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("adminsession: store: %w", err)
	}
	return sess, nil
}

// Validate resolves a token. Unknown, expired and malformed tokens are
// authentication errors.
func (s *Store) Validate(ctx context.Context, token string) (*Session, error) {
	const op = "adminsession.Validate"
	token = strings.TrimSpace(token)
	if _, err := uuid.Parse(token); err != nil {
		return nil, apperr.Authentication(op, "invalid admin session")
	}
	data, err := s.client.Get(ctx, key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperr.Authentication(op, "admin session expired")
	}
	if err != nil {
		return nil, fmt.Errorf("adminsession: load: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, apperr.Authentication(op, "invalid admin session")
	}
	sess.Token = token
	return &sess, nil
}

// Revoke ends a session. Revoking an unknown token is not an error.
func (s *Store) Revoke(ctx context.Context, token string) error {
	return s.client.Del(ctx, key(strings.TrimSpace(token))).Err()
}

// TokenFromHeader extracts the token from an "Authorization: Bearer" value.
func TokenFromHeader(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
