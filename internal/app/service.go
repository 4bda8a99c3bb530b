/**
 * @description
 * This file contains the core business logic for the user-service, implemented
 * as a `UserService`. It orchestrates signup, signin, profile updates, the
 * directory search, and balance lookups by coordinating the repositories and
 * the token layer.
 *
 * @notes
 * - This service layer keeps the API handlers (controllers) thin and focused
 *   on HTTP concerns, while the business logic remains independent.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/transfa/user-service/internal/auth"
	"github.com/transfa/user-service/internal/domain"
	"github.com/transfa/user-service/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// Errors surfaced to the API layer.
var (
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountNotFound    = errors.New("account not found")
)

// UserService provides identity and account-provisioning operations.
type UserService struct {
	userRepo    store.UserRepository
	accountRepo store.AccountRepository
	jwtSecret   []byte
}

// NewUserService creates a new instance of UserService.
func NewUserService(userRepo store.UserRepository, accountRepo store.AccountRepository, jwtSecret []byte) *UserService {
	return &UserService{
		userRepo:    userRepo,
		accountRepo: accountRepo,
		jwtSecret:   jwtSecret,
	}
}

// Signup registers a new user, provisions their account with a random starting
// balance, and returns a session token for the new identity. The repository
// commits the user, account, and user.created outbox row in one transaction;
// the unique index on username is what actually enforces uniqueness, so two
// racing signups cannot both succeed.
func (s *UserService) Signup(ctx context.Context, req domain.SignupRequest) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("could not hash password: %w", err)
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}

	balance := 1 + rand.Float64()*10000
	userID, err := s.userRepo.CreateUserWithAccount(ctx, user, balance)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			return "", ErrDuplicateUsername
		}
		return "", fmt.Errorf("could not create user: %w", err)
	}

	return auth.GenerateToken(userID, s.jwtSecret)
}

// Signin verifies the submitted credentials against the stored bcrypt hash and
// returns a session token on success. An unknown username and a wrong password
// both come back as ErrInvalidCredentials.
func (s *UserService) Signin(ctx context.Context, req domain.SigninRequest) (string, error) {
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("could not look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return "", ErrInvalidCredentials
	}

	return auth.GenerateToken(user.ID, s.jwtSecret)
}

// UpdateProfile applies the supplied fields to the caller's own record. A new
// password is re-hashed before it is stored; omitted fields are untouched.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req domain.UpdateUserRequest) error {
	var passwordHash *string
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("could not hash password: %w", err)
		}
		h := string(hash)
		passwordHash = &h
	}

	if err := s.userRepo.UpdateUser(ctx, userID, passwordHash, req.FirstName, req.LastName); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("could not update user: %w", err)
	}
	return nil
}

// SearchUsers runs the directory query on behalf of the caller, who is always
// excluded from their own results.
func (s *UserService) SearchUsers(ctx context.Context, callerID, filter string) ([]domain.UserSummary, error) {
	return s.userRepo.SearchUsers(ctx, callerID, filter)
}

// GetProfile returns the caller's own user record. A valid token whose user no
// longer exists yields ErrUserNotFound.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not look up user: %w", err)
	}
	return user, nil
}

// GetBalance returns the caller's signup-provisioned account.
func (s *UserService) GetBalance(ctx context.Context, userID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("could not look up account: %w", err)
	}
	return account, nil
}
