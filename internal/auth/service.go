package auth

import (
	"context"
	"log/slog"

	errors "github.com/DeependraDeveloper/AMS-BACKEND/internal"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/user"
)

type PasswordVerifier interface {
	Compare(hash, password string) bool
}

// Service is the main auth service with dependencies
type Service struct {
	users          UserDirectory
	tokenGenerator TokenGenerator
	verifier       PasswordVerifier
	logger         *slog.Logger
}

// NewService creates a new auth service
func NewService(users UserDirectory, tokenGen TokenGenerator, verifier PasswordVerifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:          users,
		tokenGenerator: tokenGen,
		verifier:       verifier,
		logger:         logger,
	}
}

// Signup registers the first user of an organization and signs it in.
func (s *Service) Signup(ctx context.Context, dto user.RegisterDTO) (*AuthResponse, error) {
	u, err := s.users.Register(ctx, dto)
	if err != nil {
		return nil, err
	}
	return s.issue(u)
}

// Signin checks the phone and password pair and returns a fresh token.
func (s *Service) Signin(ctx context.Context, dto SigninDTO) (*AuthResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	phone, err := dto.Phone.Int64()
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	if !s.verifier.Compare(u.PasswordHash, dto.Password) {
		s.logger.Warn("signin rejected", "user_id", u.ID)
		return nil, errors.ErrInvalidCredentials
	}

	return s.issue(u)
}

// ResetPassword replaces the password of the account owning the phone.
func (s *Service) ResetPassword(ctx context.Context, dto ResetPasswordDTO) (*user.User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	phone, err := dto.Phone.Int64()
	if err != nil {
		return nil, err
	}
	return s.users.SetPassword(ctx, phone, dto.Password)
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString)
}

func (s *Service) issue(u *user.User) (*AuthResponse, error) {
	token, err := s.tokenGenerator.GenerateToken(u.ID, u.Role)
	if err != nil {
		return nil, errors.NewInternalError("failed to issue token", err)
	}
	return &AuthResponse{User: u, Token: token}, nil
}
