package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yukikurage/taskflow-api/internal/constants"
)

// Identity is what a verified token says about its bearer.
type Identity struct {
	UserID    uint64
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

type claims struct {
	UserID  uint64 `json:"id"`
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// IssueSessionToken signs a session token for the user.
func (m *Manager) IssueSessionToken(userID uint64, email string) (string, error) {
	return m.issue(userID, email, constants.TokenPurposeSession, m.sessionTTL)
}

// VerifySessionToken accepts only unexpired tokens issued with the session purpose.
func (m *Manager) VerifySessionToken(token string) (*Identity, error) {
	return m.verify(token, constants.TokenPurposeSession)
}

// IssueResetToken signs a password-reset token for the user.
func (m *Manager) IssueResetToken(userID uint64, email string) (string, error) {
	return m.issue(userID, email, constants.TokenPurposePasswordReset, m.resetTTL)
}

// VerifyResetToken accepts only unexpired tokens issued with the password-reset purpose.
func (m *Manager) VerifyResetToken(token string) (*Identity, error) {
	return m.verify(token, constants.TokenPurposePasswordReset)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if len(header) <= len(constants.BearerPrefix) ||
		!strings.EqualFold(header[:len(constants.BearerPrefix)], constants.BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(constants.BearerPrefix):])
	return token, token != ""
}

func (m *Manager) issue(userID uint64, email, purpose string, ttl time.Duration) (string, error) {
	if len(m.secret) == 0 {
		return "", ErrMissingSecret
	}

	now := m.now()
	c := claims{
		UserID:  userID,
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", purpose, err)
	}
	return signed, nil
}

func (m *Manager) verify(token, purpose string) (*Identity, error) {
	if len(m.secret) == 0 {
		return nil, ErrMissingSecret
	}
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidToken
	}

	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if c.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	if c.UserID == 0 || c.Email == "" || c.Subject != strconv.FormatUint(c.UserID, 10) {
		return nil, ErrInvalidToken
	}

	return &Identity{
		UserID:    c.UserID,
		Email:     c.Email,
		TokenID:   c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}
