package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/utils"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no row matches. It aliases gorm.ErrRecordNotFound
// so callers can use either.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicateEmail is returned when the users.email unique index rejects a write.
var ErrDuplicateEmail = errors.New("user repository: email already exists")

// TaskRepository defines the interface for task data access. Every lookup and
// mutation is scoped by the owning user.
type TaskRepository interface {
	// ListByOwner returns all tasks owned by userID, oldest first
	ListByOwner(ctx context.Context, userID uint64) ([]models.Task, error)

	// FindOwned finds the task (id, userID)
	FindOwned(ctx context.Context, id, userID uint64) (*models.Task, error)

	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// UpdateOwned applies fields to the task (id, userID) and returns the result
	UpdateOwned(ctx context.Context, id, userID uint64, fields map[string]interface{}) (*models.Task, error)

	// DeleteOwned deletes the task (id, userID) and returns its prior state
	DeleteOwned(ctx context.Context, id, userID uint64) (*models.Task, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// List returns a page of users and the total count
	List(ctx context.Context, params utils.PaginationParams) ([]models.User, int64, error)

	// UpdateName changes a user's display name
	UpdateName(ctx context.Context, id uint64, name string) (*models.User, error)

	// UpdatePassword replaces a user's password hash
	UpdatePassword(ctx context.Context, id uint64, passwordHash string) error

	// UpdateRole changes a user's role
	UpdateRole(ctx context.Context, id uint64, role models.UserRole) error

	// Delete deletes a user and their tasks, returning the prior state
	Delete(ctx context.Context, id uint64) (*models.User, error)
}

// ResetTokenRepository records redeemed password-reset tokens.
type ResetTokenRepository interface {
	// Consume marks tokenID as used. It returns false if it was already used.
	Consume(ctx context.Context, tokenID string, userID uint64, expiresAt time.Time) (bool, error)

	// Release forgets tokenID so it can be redeemed again
	Release(ctx context.Context, tokenID string) error
}
