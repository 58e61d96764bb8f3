package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/DeependraDeveloper/AMS-BACKEND/internal/user"
)

// UserDirectory is the slice of the user service that authentication needs.
type UserDirectory interface {
	Register(ctx context.Context, dto user.RegisterDTO) (*user.User, error)
	GetByPhone(ctx context.Context, phone int64) (*user.User, error)
	SetPassword(ctx context.Context, phone int64, password string) (*user.User, error)
}

type ServiceAPI interface {
	Signup(ctx context.Context, dto user.RegisterDTO) (*AuthResponse, error)
	Signin(ctx context.Context, dto SigninDTO) (*AuthResponse, error)
	ResetPassword(ctx context.Context, dto ResetPasswordDTO) (*user.User, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
}

// AuthResponse is the user document with its bearer token alongside.
type AuthResponse struct {
	*user.User
	Token string `json:"token"`
}

// BcryptHasher hashes and verifies passwords with a fixed cost.
type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	return HashPassword(password, h.Cost)
}

func (h *BcryptHasher) Compare(hash, password string) bool {
	return VerifyPassword(hash, password) == nil
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
