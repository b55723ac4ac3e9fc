// Package session holds the cashier's authenticated context: the backend bearer
// token and the user it belongs to. It is loaded on start and cleared on logout
// or when the backend rejects the token.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/tokosehat/kasir/pkg/auth"
)

// Store persists the serialized session.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// Backend is a Store that also knows how to name a register's session key.
type Backend interface {
	Store
	SessionKey(registerID string) string
}

var ErrTokenRequired = errors.New("session token is required")
var ErrUserRequired = errors.New("session user is required")

type record struct {
	Token   string    `json:"token"`
	User    auth.User `json:"user"`
	SavedAt time.Time `json:"saved_at"`
}

// Session is safe for concurrent use.
type Session struct {
	mu    sync.RWMutex
	store Store
	key   string
	ttl   time.Duration
	now   func() time.Time

	token string
	user  *auth.User
}

// Option customizes a Session.
type Option func(*Session)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds a session bound to registerID's key on the backend.
func New(backend Backend, registerID string, ttl time.Duration, opts ...Option) (*Session, error) {
	if backend == nil {
		return nil, fmt.Errorf("session backend is required")
	}
	registerID = strings.TrimSpace(registerID)
	if registerID == "" {
		return nil, fmt.Errorf("register id is required")
	}
	if ttl < 0 {
		return nil, fmt.Errorf("session ttl must not be negative")
	}
	s := &Session{
		store: backend,
		key:   backend.SessionKey(registerID),
		ttl:   ttl,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Load reads the persisted session. A missing, unreadable or expired record
// leaves the session logged out; only store failures are returned.
func (s *Session) Load(ctx context.Context) error {
	raw, err := s.store.Get(ctx, s.key)
	if errors.Is(err, redislib.Nil) {
		s.reset()
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || strings.TrimSpace(rec.Token) == "" {
		s.reset()
		return s.store.Del(ctx, s.key)
	}
	if s.expired(rec.Token) {
		s.reset()
		return s.store.Del(ctx, s.key)
	}

	user := rec.User
	s.mu.Lock()
	s.token = rec.Token
	s.user = &user
	s.mu.Unlock()
	return nil
}

// Save persists a fresh login.
func (s *Session) Save(ctx context.Context, token string, user *auth.User) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrTokenRequired
	}
	if user == nil {
		return ErrUserRequired
	}
	payload, err := json.Marshal(record{Token: token, User: *user, SavedAt: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := s.store.Set(ctx, s.key, string(payload), s.ttlFor(token)); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	copied := *user
	s.mu.Lock()
	s.token = token
	s.user = &copied
	s.mu.Unlock()
	return nil
}

// Clear drops the in-memory identity and the persisted record.
func (s *Session) Clear(ctx context.Context) error {
	s.reset()
	if err := s.store.Del(ctx, s.key); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// Token returns the bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the logged in user, or nil.
func (s *Session) User() *auth.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	copied := *s.user
	return &copied
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

func (s *Session) reset() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
}

func (s *Session) expired(token string) bool {
	info, err := auth.InspectToken(token)
	if err != nil {
		return false
	}
	return info.Expired(s.now())
}

// ttlFor caps the configured TTL at the token's own expiry.
func (s *Session) ttlFor(token string) time.Duration {
	ttl := s.ttl
	info, err := auth.InspectToken(token)
	if err != nil || info.ExpiresAt == nil {
		return ttl
	}
	remaining := info.ExpiresAt.Sub(s.now())
	if remaining <= 0 {
		return time.Second
	}
	if ttl == 0 || remaining < ttl {
		return remaining
	}
	return ttl
}
