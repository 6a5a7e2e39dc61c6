package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/yukikurage/taskflow-api/internal/auth"
	"github.com/yukikurage/taskflow-api/internal/constants"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/mail"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/repository"
)

var (
	ErrEmailRequired      = apierrors.New(apierrors.ErrValidation, "Email is required")
	ErrNameRequired       = apierrors.New(apierrors.ErrValidation, "Name is required")
	ErrNameTooLong        = apierrors.New(apierrors.ErrValidation, fmt.Sprintf("Name must be at most %d characters", constants.MaxNameLength))
	ErrEmailTaken         = apierrors.New(apierrors.ErrConflict, "Email already in use")
	ErrInvalidCredentials = apierrors.NewWithCode(apierrors.ErrUnauthorized, apierrors.ErrCodeInvalidCredentials, "Invalid credentials")
	ErrUserNotFound       = apierrors.New(apierrors.ErrNotFound, "User not found")
	ErrResetTokenRequired = apierrors.New(apierrors.ErrValidation, "Missing token")
	ErrResetTokenUsed     = apierrors.NewWithCode(apierrors.ErrUnauthorized, apierrors.ErrCodeInvalidToken, "Reset token has already been used")
)

// AuthService handles registration, login and the password-reset flow.
type AuthService struct {
	userRepo  repository.UserRepository
	resetRepo repository.ResetTokenRepository
	tokens    *auth.Manager
	mailer    mail.Mailer
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, resetRepo repository.ResetTokenRepository, tokens *auth.Manager, mailer mail.Mailer) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		resetRepo: resetRepo,
		tokens:    tokens,
		mailer:    mailer,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is an authenticated user together with a fresh session token.
type AuthResult struct {
	User  *models.User
	Token string
}

// Register creates a common user and signs them in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if err := auth.ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	email := NormalizeEmail(input.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := s.tokens.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         models.RoleCommon,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.IssueSessionToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials and returns the user with a new session token.
// Unknown emails and wrong passwords are indistinguishable.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	ok, err := s.tokens.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.IssueSessionToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Token: token}, nil
}

// ForgotPassword mails a reset link when the account exists. The outcome is
// the same whether or not it does.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return nil
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	token, err := s.tokens.IssueResetToken(user.ID, user.Email)
	if err != nil {
		return err
	}

	if err := s.mailer.SendResetPasswordMail(ctx, user.Email, token); err != nil {
		log.Printf("failed to send reset password mail to user %d: %v", user.ID, err)
	}
	return nil
}

// ResetPassword redeems a reset token once and stores the new password.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}
	if strings.TrimSpace(token) == "" {
		return ErrResetTokenRequired
	}

	identity, err := s.tokens.VerifyResetToken(token)
	if err != nil {
		return err
	}

	if _, err := s.userRepo.FindByID(ctx, identity.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	hash, err := s.tokens.HashPassword(newPassword)
	if err != nil {
		return err
	}

	fresh, err := s.resetRepo.Consume(ctx, identity.TokenID, identity.UserID, identity.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to consume reset token: %w", err)
	}
	if !fresh {
		return ErrResetTokenUsed
	}

	if err := s.userRepo.UpdatePassword(ctx, identity.UserID, hash); err != nil {
		// The password was not changed, so the link stays usable.
		if rerr := s.resetRepo.Release(ctx, identity.TokenID); rerr != nil {
			log.Printf("Failed to release reset token for user %d: %v", identity.UserID, rerr)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}
	if utf8.RuneCountInString(name) > constants.MaxNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}
