package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"cwl-tracker/internal/config"
)

// ErrInvalidCredentials covers both a wrong email and a wrong password;
// callers get no hint which one failed.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Session is an explicit admin session: who authenticated and until
// when. Expiry is re-checked on every access rather than reaped by a
// background timer.
type Session struct {
	Token         string    `json:"token"`
	Identity      string    `json:"identity"`
	Authenticated bool      `json:"authenticated"`
	Expiry        time.Time `json:"expiry"`
}

// Valid reports whether the session is still usable at the given time.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.Authenticated && now.Before(s.Expiry)
}

// Manager checks the single configured admin credential and hands out
// opaque session tokens. Sessions live in memory; a restart logs the
// admin out, which is acceptable for a single-admin dashboard.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	email        string
	passwordHash string
	ttl          time.Duration
	logger       zerolog.Logger
}

func NewManager(cfg *config.Config, logger zerolog.Logger) *Manager {
	return &Manager{
		sessions:     make(map[string]*Session),
		email:        cfg.AdminEmail,
		passwordHash: cfg.AdminPasswordHash,
		ttl:          cfg.SessionTTL,
		logger:       logger,
	}
}

// Login verifies the credential pair and, on success, creates a new
// session. The password is compared against the configured bcrypt hash.
func (m *Manager) Login(email, password string) (*Session, error) {
	if email != m.email {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.passwordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	session := &Session{
		Token:         uuid.New().String(),
		Identity:      email,
		Authenticated: true,
		Expiry:        time.Now().Add(m.ttl),
	}

	m.mu.Lock()
	m.sessions[session.Token] = session
	m.mu.Unlock()

	m.logger.Info().Str("identity", email).Time("expiry", session.Expiry).Msg("admin logged in")
	return session, nil
}

// Get returns the live session for a token. An expired session is
// removed on access and reported as absent.
func (m *Manager) Get(token string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[token]
	if !ok {
		return nil, false
	}
	if !session.Valid(time.Now()) {
		delete(m.sessions, token)
		return nil, false
	}
	return session, true
}

// Logout drops the session. Unknown tokens are a no-op.
func (m *Manager) Logout(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}
