package auth

import (
	"fmt"
	"time"

	"github.com/yukikurage/taskflow-api/internal/constants"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrWeakPassword = apierrors.New(apierrors.ErrValidation,
		fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	ErrPasswordTooLong = apierrors.New(apierrors.ErrValidation,
		fmt.Sprintf("Password must be at most %d bytes", constants.MaxPasswordBytes))
	ErrMalformedHash = apierrors.New(apierrors.ErrInternal, "stored password hash is malformed")
	ErrInvalidToken  = apierrors.NewWithCode(apierrors.ErrUnauthorized, apierrors.ErrCodeInvalidToken, "Invalid token")
	ErrExpiredToken  = apierrors.NewWithCode(apierrors.ErrUnauthorized, apierrors.ErrCodeTokenExpired, "Token expired")
	ErrMissingSecret = apierrors.New(apierrors.ErrConfig, "token signing secret is not configured")
)

// Manager owns password hashing and token issuance/verification.
type Manager struct {
	secret     []byte
	issuer     string
	bcryptCost int
	sessionTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithBcryptCost sets the bcrypt work factor. Out-of-range values fall back to the default.
func WithBcryptCost(cost int) Option {
	return func(m *Manager) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			m.bcryptCost = cost
		}
	}
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.sessionTTL = ttl
		}
	}
}

func WithResetTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.resetTTL = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a Manager. An empty secret is a fatal configuration error.
func NewManager(secret, issuer string, opts ...Option) (*Manager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	m := &Manager{
		secret:     []byte(secret),
		issuer:     issuer,
		bcryptCost: constants.DefaultBcryptCost,
		sessionTTL: constants.DefaultSessionTokenTTL,
		resetTTL:   constants.DefaultResetTokenTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}
