package constants

import "time"

// Context keys
const (
	ContextKeyUserID = "user_id"
	ContextKeyTaskID = "task_id"
)

// Credential policy
const (
	MinPasswordLength = 8
	// bcrypt only looks at the first 72 bytes of input.
	MaxPasswordBytes = 72

	DefaultBcryptCost = 10

	DefaultSessionTokenTTL = 2 * time.Hour
	DefaultResetTokenTTL   = 15 * time.Minute
	MinResetTokenTTL       = 10 * time.Minute
	MaxResetTokenTTL       = 15 * time.Minute

	TokenPurposeSession       = "session"
	TokenPurposePasswordReset = "password-reset"

	BearerPrefix = "Bearer "
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Request handling
const (
	DefaultRequestTimeout = 15 * time.Second
	MaxNameLength         = 100
	MaxTitleLength        = 255
)
