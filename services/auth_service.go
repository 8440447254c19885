package services

import (
	"fmt"
	"log/slog"

	"failly/auth"
	"failly/domain"
	"failly/errors"
	"failly/repositories"
)

type IAuthService interface {
	Signup(displayName, password string) (domain.Profile, string, error)
	Login(displayName, password string) (domain.Profile, string, error)
}

// AuthService handles account creation and login for the HTTP surface.
type AuthService struct {
	users  repositories.IUserRepository
	tokens auth.TokenManager
	log    *slog.Logger
}

func NewAuthService(users repositories.IUserRepository, tokens auth.TokenManager,
	log *slog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log}
}

// Signup creates a profile and returns it along with a fresh token.
func (s *AuthService) Signup(displayName, password string) (domain.Profile, string, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.Profile{}, "", fmt.Errorf("hashing password: %w", err)
	}

	profile, err := s.users.Create(displayName, hash)
	if err != nil {
		return domain.Profile{}, "", err
	}

	token, err := s.tokens.Generate(profile.UserID)
	if err != nil {
		return domain.Profile{}, "", err
	}
	s.log.Info("Account created", "user_id", profile.UserID)
	return profile, token, nil
}

// Login verifies credentials and returns the profile with a fresh token.
// Unknown names and bad passwords collapse into one error so callers
// cannot probe which names exist.
func (s *AuthService) Login(displayName, password string) (domain.Profile, string, error) {
	profile, err := s.users.FindByDisplayName(displayName)
	if err != nil {
		return domain.Profile{}, "", errors.ErrInvalidCredential
	}

	ok, err := auth.ComparePassword(password, profile.PasswordHash)
	if err != nil || !ok {
		return domain.Profile{}, "", errors.ErrInvalidCredential
	}

	token, err := s.tokens.Generate(profile.UserID)
	if err != nil {
		return domain.Profile{}, "", err
	}
	return profile, token, nil
}
