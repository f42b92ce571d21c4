// Package service contains the business logic layer.
//
// THE DEPENDENCY CHAIN:
//
//	main.go creates:  DB → Repository → Service → Handler
//	At runtime:       Handler calls Service calls Repository calls DB
//
// Services take repository interfaces, not *sqlite.DB, so tests can inject
// mocks and the HTTP layer never touches SQL.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode"

	"github.com/sakif/recipe-box/internal/apperror"
	"github.com/sakif/recipe-box/internal/auth"
	"github.com/sakif/recipe-box/internal/model"
	"github.com/sakif/recipe-box/internal/repository"
)

const (
	MaxEmailLength    = 254
	MaxUsernameLength = 150
	MaxNameLength     = 150
	MinPasswordLength = 8
)

// UserService handles registration, login and profile lookups.
type UserService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// validUsername permits letters, digits and . @ + - _ in usernames.
func validUsername(username string) bool {
	for _, r := range username {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(".@+-_", r) {
			continue
		}
		return false
	}
	return true
}

// Register validates the signup payload, hashes the password and creates the
// account. The repository reports duplicate email/username as a conflict.
func (s *UserService) Register(ctx context.Context, email, username, firstName, lastName, password string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(username)
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)

	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if len(email) > MaxEmailLength {
		return nil, apperror.ValidationFailed("email",
			fmt.Sprintf("email must be %d characters or less", MaxEmailLength))
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.ValidationFailed("email", "email is not a valid address")
	}
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if !validUsername(username) {
		return nil, apperror.ValidationFailed("username",
			"username may only contain letters, digits and . @ + - _")
	}
	if firstName == "" {
		return nil, apperror.ValidationFailed("first_name", "first name is required")
	}
	if len(firstName) > MaxNameLength {
		return nil, apperror.ValidationFailed("first_name",
			fmt.Sprintf("first name must be %d characters or less", MaxNameLength))
	}
	if lastName == "" {
		return nil, apperror.ValidationFailed("last_name", "last name is required")
	}
	if len(lastName) > MaxNameLength {
		return nil, apperror.ValidationFailed("last_name",
			fmt.Sprintf("last name must be %d characters or less", MaxNameLength))
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "password could not be processed")
	}

	user := &model.User{
		Email:        email,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: hash,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Authenticate verifies email + password and issues a JWT.
//
// Both the unknown-email and wrong-password paths return the same
// ErrForbidden message so the response does not reveal whether an email is
// registered.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "email and password are required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Forbidden("invalid email or password")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Forbidden("invalid email or password")
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/user: generating token for %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// SetPassword changes the caller's password after verifying the current one.
func (s *UserService) SetPassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetUserByID(ctx, userID, userID)
	if err != nil {
		return err
	}

	if err := s.passwords.Verify(user.PasswordHash, currentPassword); err != nil {
		return apperror.Forbidden("current password is incorrect")
	}

	if len(newPassword) < MinPasswordLength {
		return apperror.ValidationFailed("new_password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return apperror.ValidationFailed("new_password", "password could not be processed")
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	s.logger.Info("password changed", slog.String("userID", userID))
	return nil
}

// GetByID returns the profile for id as seen by viewerID. An empty viewerID
// means an anonymous request: is_subscribed comes back false.
func (s *UserService) GetByID(ctx context.Context, id, viewerID string) (*model.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.users.GetUserByID(ctx, id, viewerID)
}

// List returns registered users ordered by signup date.
func (s *UserService) List(ctx context.Context, viewerID string, limit, offset int) ([]model.User, error) {
	users, err := s.users.ListUsers(ctx, viewerID, repository.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/user: listing users: %w", err)
	}
	return users, nil
}
