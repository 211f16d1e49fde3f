package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"

	"github.com/carson-networks/finance-tracker/internal/models"
)

// Identity is what the identity provider reports about a signed-in user.
// Only UserID is used to scope data.
type Identity struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL"`
	UserID      string `json:"userID"`
}

// Session is one signed-in client of a user.
type Session struct {
	ID        string
	Identity  Identity
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type claims struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues bearer tokens for sessions and tracks which sessions are open.
// A token is honoured only while its session is open: signing out or expiry
// closes it.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time

	sessions *cache.Cache

	mu      sync.RWMutex
	onStart []func(Session)
	onEnd   []func(Session)
}

func NewManager(secret, issuer string, ttl time.Duration) *Manager {
	m := &Manager{
		secret:   []byte(secret),
		issuer:   issuer,
		ttl:      ttl,
		now:      time.Now,
		sessions: cache.New(ttl, time.Minute),
	}
	m.sessions.OnEvicted(func(_ string, value interface{}) {
		if s, ok := value.(Session); ok {
			m.ended(s)
		}
	})
	return m
}

// OnStart registers fn to run after every sign-in.
func (m *Manager) OnStart(fn func(Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStart = append(m.onStart, fn)
}

// OnEnd registers fn to run when a session is signed out or expires.
func (m *Manager) OnEnd(fn func(Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEnd = append(m.onEnd, fn)
}

// SignIn opens a session for identity and returns its bearer token.
func (m *Manager) SignIn(identity Identity) (string, *Session, error) {
	identity.UserID = strings.TrimSpace(identity.UserID)
	if identity.UserID == "" {
		return "", nil, models.ErrUnauthenticated
	}

	now := m.now()
	s := Session{
		ID:        uuid.Must(uuid.NewV4()).String(),
		Identity:  identity,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		Name:    identity.DisplayName,
		Email:   identity.Email,
		Picture: identity.PhotoURL,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   identity.UserID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}

	m.sessions.Set(s.ID, s, m.ttl)

	m.mu.RLock()
	hooks := append([]func(Session){}, m.onStart...)
	m.mu.RUnlock()
	for _, fn := range hooks {
		fn(s)
	}

	return signed, &s, nil
}

// Resolve returns the open session a bearer token belongs to. Any problem with
// the token is reported as models.ErrUnauthenticated.
func (m *Manager) Resolve(token string) (*Session, error) {
	c, err := m.parse(token)
	if err != nil {
		return nil, err
	}

	value, found := m.sessions.Get(c.ID)
	if !found {
		return nil, models.ErrUnauthenticated
	}
	s := value.(Session)
	return &s, nil
}

// SignOut closes the session of token. Closing an already closed session is not an error.
func (m *Manager) SignOut(token string) error {
	c, err := m.parse(token)
	if err != nil {
		return err
	}
	m.sessions.Delete(c.ID)
	return nil
}

// ActiveSessions reports how many sessions are open.
func (m *Manager) ActiveSessions() int {
	return m.sessions.ItemCount()
}

// Close ends every open session.
func (m *Manager) Close() {
	for id := range m.sessions.Items() {
		m.sessions.Delete(id)
	}
}

func (m *Manager) parse(token string) (*claims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, models.ErrUnauthenticated
	}

	c := &claims{}
	parsed, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, errors.Join(models.ErrUnauthenticated, err)
	}
	if !parsed.Valid || c.ID == "" || c.Subject == "" {
		return nil, models.ErrUnauthenticated
	}
	return c, nil
}

func (m *Manager) ended(s Session) {
	m.mu.RLock()
	hooks := append([]func(Session){}, m.onEnd...)
	m.mu.RUnlock()
	for _, fn := range hooks {
		fn(s)
	}
}
