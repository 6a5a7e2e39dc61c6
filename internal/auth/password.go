package auth

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/yukikurage/taskflow-api/internal/constants"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword validates the password policy and returns a salted bcrypt hash.
func (m *Manager) HashPassword(plaintext string) (string, error) {
	if err := ValidatePassword(plaintext); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), m.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares plaintext against a stored hash. A mismatch is not an
// error; only a hash that cannot be parsed is.
func (m *Manager) VerifyPassword(plaintext, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
}

// ValidatePassword applies the password policy without hashing.
func ValidatePassword(plaintext string) error {
	if utf8.RuneCountInString(plaintext) < constants.MinPasswordLength {
		return ErrWeakPassword
	}
	if len(plaintext) > constants.MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}
