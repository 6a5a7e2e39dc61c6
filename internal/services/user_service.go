package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/yukikurage/taskflow-api/internal/auth"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"github.com/yukikurage/taskflow-api/internal/utils"
)

var (
	ErrWrongPassword    = apierrors.NewWithCode(apierrors.ErrUnauthorized, apierrors.ErrCodeInvalidCredentials, "Current password is incorrect")
	ErrAdminRequired    = apierrors.New(apierrors.ErrForbidden, "Insufficient permission")
	ErrCannotDeleteSelf = apierrors.New(apierrors.ErrValidation, "Use DELETE /user to delete your own account")
)

// UserService handles self-service account management and admin user management.
type UserService struct {
	userRepo repository.UserRepository
	tokens   *auth.Manager
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository, tokens *auth.Manager) *UserService {
	return &UserService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// ChangeName updates the display name of userID
func (s *UserService) ChangeName(ctx context.Context, userID uint64, name string) (*models.User, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.UpdateName(ctx, userID, name)
	if err != nil {
		return nil, mapUserError("failed to update name", err)
	}
	return user, nil
}

// ChangePassword replaces the password after verifying the current one
func (s *UserService) ChangePassword(ctx context.Context, userID uint64, current, next string) error {
	if err := auth.ValidatePassword(next); err != nil {
		return err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return mapUserError("failed to find user", err)
	}

	ok, err := s.tokens.VerifyPassword(current, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWrongPassword
	}

	hash, err := s.tokens.HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return mapUserError("failed to update password", err)
	}
	return nil
}

// DeleteSelf deletes the acting user together with their tasks
func (s *UserService) DeleteSelf(ctx context.Context, userID uint64) (*models.User, error) {
	user, err := s.userRepo.Delete(ctx, userID)
	if err != nil {
		return nil, mapUserError("failed to delete user", err)
	}
	return user, nil
}

// RequireAdmin loads userID and fails unless the stored role is admin
func (s *UserService) RequireAdmin(ctx context.Context, userID uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAdminRequired
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !user.IsAdmin() {
		return nil, ErrAdminRequired
	}
	return user, nil
}

// ListUsers returns one page of users
func (s *UserService) ListUsers(ctx context.Context, params utils.PaginationParams) ([]models.User, int64, error) {
	users, total, err := s.userRepo.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// DeleteUser removes targetID on behalf of an admin
func (s *UserService) DeleteUser(ctx context.Context, actorID, targetID uint64) (*models.User, error) {
	if actorID == targetID {
		return nil, ErrCannotDeleteSelf
	}

	user, err := s.userRepo.Delete(ctx, targetID)
	if err != nil {
		return nil, mapUserError("failed to delete user", err)
	}
	return user, nil
}

// SeedAdmin makes sure an admin account exists for email. An existing account
// is promoted; its password is left alone.
func (s *UserService) SeedAdmin(ctx context.Context, email, password, name string) (*models.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsAdmin() {
			return existing, nil
		}
		if err := s.userRepo.UpdateRole(ctx, existing.ID, models.RoleAdmin); err != nil {
			return nil, mapUserError("failed to promote admin", err)
		}
		existing.Role = models.RoleAdmin
		log.Printf("Promoted %s to admin", email)
		return existing, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}

	name, err = validateName(name)
	if err != nil {
		return nil, err
	}
	hash, err := s.tokens.HashPassword(password)
	if err != nil {
		return nil, err
	}

	admin := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	log.Printf("Created admin account %s", email)
	return admin, nil
}

func mapUserError(action string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return fmt.Errorf("%s: %w", action, err)
}
