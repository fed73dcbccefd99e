// Package session owns the authentication token and the logged-in user.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"tasker/internal/service"
)

// MinPasswordLength is enforced before a register request is sent.
const MinPasswordLength = 8

// State is the authentication state of a session.
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Session is a snapshot of the current token and user.
// User is nil unless the token was validated by the API.
type Session struct {
	Token string
	User  *service.User
}

var (
	ErrCredentialsRequired = errors.New("email and password are required")
	ErrPasswordTooShort    = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailTaken          = errors.New("email is already taken")
	ErrProfileUnavailable  = errors.New("error loading user information")
)

type loginForm struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

type registerForm struct {
	Email    string `validate:"required"`
	Password string `validate:"required,min=8"`
}

// Manager implements login, register, restore and logout on top of the API
// and a TokenStore.
type Manager struct {
	api      service.API
	store    TokenStore
	log      *zap.SugaredLogger
	validate *validator.Validate
	sess     Session
}

// NewManager creates a Manager in the Anonymous state.
func NewManager(api service.API, store TokenStore, log *zap.SugaredLogger) *Manager {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Manager{
		api:      api,
		store:    store,
		log:      log,
		validate: validator.New(),
	}
}

// State reports whether a token is held.
func (m *Manager) State() State {
	if m.sess.Token == "" {
		return Anonymous
	}
	return Authenticated
}

// Token returns the current token ("" when Anonymous).
func (m *Manager) Token() string {
	return m.sess.Token
}

// Session returns a copy of the current session.
func (m *Manager) Session() Session {
	s := Session{Token: m.sess.Token}
	if m.sess.User != nil {
		u := *m.sess.User
		s.User = &u
	}
	return s
}

// Restore validates a persisted token. Without one it stays Anonymous and
// sends nothing. If the API rejects the token for any reason the persisted
// token is removed and the error is returned.
func (m *Manager) Restore(ctx context.Context) error {
	token, err := m.store.Load()
	if err != nil {
		m.clear()
		return fmt.Errorf("load token: %w", err)
	}
	if token == "" {
		m.sess = Session{}
		return nil
	}

	user, err := m.api.CurrentUser(ctx, token)
	if err != nil {
		m.log.Debugw("stored token rejected", "error", err)
		m.clear()
		return fmt.Errorf("restore session: %w", err)
	}
	m.sess = Session{Token: token, User: &user}
	return nil
}

// Login authenticates with email and password. Both must be non-empty; the
// email format is left to the server.
//
// A failure of the follow-up profile fetch returns ErrProfileUnavailable but
// leaves the token persisted and the session Authenticated without a User.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	if err := m.validate.Struct(loginForm{Email: email, Password: password}); err != nil {
		return ErrCredentialsRequired
	}

	token, err := m.api.Login(ctx, service.Credentials{Email: email, Password: password})
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("login failed: %w", err)
	}
	return m.establish(ctx, token)
}

// Register creates an account. The password must have at least
// MinPasswordLength characters; shorter passwords never reach the server.
func (m *Manager) Register(ctx context.Context, email, password string) error {
	if err := m.validate.Struct(registerForm{Email: email, Password: password}); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "Password" {
			return ErrPasswordTooShort
		}
		return ErrCredentialsRequired
	}

	token, err := m.api.Register(ctx, service.Credentials{Email: email, Password: password})
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			return ErrEmailTaken
		}
		return fmt.Errorf("registration failed: %w", err)
	}
	return m.establish(ctx, token)
}

// Logout forgets the token locally. No request is sent.
func (m *Manager) Logout() error {
	return m.clear()
}

// Invalidate ends the session if err is an authentication failure.
// It reports whether the session was cleared.
func (m *Manager) Invalidate(err error) bool {
	if err == nil || !errors.Is(err, service.ErrUnauthorized) || m.sess.Token == "" {
		return false
	}
	m.log.Warnw("session rejected by server, logging out", "error", err)
	m.clear()
	return true
}

// ExpiresAt returns the expiry claim when the token is a JWT. The token is
// otherwise opaque and the second result is false.
func (m *Manager) ExpiresAt() (time.Time, bool) {
	if m.sess.Token == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(m.sess.Token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// establish persists token and then fetches the profile.
func (m *Manager) establish(ctx context.Context, token string) error {
	if err := m.store.Save(token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	m.sess = Session{Token: token}

	user, err := m.api.CurrentUser(ctx, token)
	if err != nil {
		m.log.Warnw("profile fetch after login failed", "error", err)
		return fmt.Errorf("%w: %v", ErrProfileUnavailable, err)
	}
	m.sess.User = &user
	return nil
}

func (m *Manager) clear() error {
	m.sess = Session{}
	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}
