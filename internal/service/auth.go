package service

import (
	"context"
	"errors"

	"github.com/wanderlust/wanderlust-go/internal/crypto"
	"github.com/wanderlust/wanderlust-go/internal/model"
	"github.com/wanderlust/wanderlust-go/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("Password or username is incorrect")
	ErrUsernameTaken      = errors.New("A user with the given username is already registered")
	ErrEmailTaken         = errors.New("A user with the given email is already registered")
)

// AuthService handles registration and credential checks.
type AuthService struct {
	users  UserStore
	hasher *crypto.PasswordHasher
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, hasher *crypto.PasswordHasher) *AuthService {
	return &AuthService{users: users, hasher: hasher}
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, in model.SignupInput) (*model.User, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, ErrUsernameTaken
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return user, nil
}

// Login checks a username and password pair.
func (s *AuthService) Login(ctx context.Context, in model.LoginInput) (*model.User, error) {
	if in.Username == "" || in.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	match, err := s.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
