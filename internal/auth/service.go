// Package auth verifies staff credentials. No token is issued; session state
// is left to the caller.
package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/lazani-bestileo/bestileo-erp/internal/platform/httpx"
	"github.com/lazani-bestileo/bestileo-erp/internal/users"
)

// ErrBadCredentials is returned for an unknown username or a wrong password,
// without telling which.
var ErrBadCredentials = httpx.Unauthorized("Nom d'utilisateur ou mot de passe incorrect")

// UserDirectory resolves accounts owned by the users package.
type UserDirectory interface {
	GetByUsername(ctx context.Context, username string) (*users.User, error)
}

// LoginRequest is the POST /api/auth payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Service implements credential checks.
type Service struct {
	directory UserDirectory
}

// NewService constructs the auth service.
func NewService(directory UserDirectory) *Service {
	return &Service{directory: directory}
}

// Login checks the username/password pair and returns the matching user.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*users.User, error) {
	u, err := s.directory.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}
