// Package users manages estate staff accounts.
package users

import (
	"time"

	"github.com/lazani-bestileo/bestileo-erp/internal/platform/httpx"
)

// Role enumerates user roles.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Domain errors.
var (
	ErrNotFound          = httpx.NotFound("Utilisateur non trouvé")
	ErrDuplicateUsername = httpx.Conflict("Ce nom d'utilisateur est déjà utilisé")
	ErrDuplicateEmail    = httpx.Conflict("Cet email est déjà utilisé")
)

// User is a staff account. The password hash never leaves the package.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	FullName  string    `json:"full_name"`
	Phone     *string   `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PasswordHash string `json:"-"`
}

// CreateUserRequest is the POST /api/users payload.
type CreateUserRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=50"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	Role     Role    `json:"role" validate:"omitempty,oneof=admin manager employee"`
	FullName string  `json:"full_name" validate:"required"`
	Phone    *string `json:"phone"`
}

// UpdateUserRequest is the PUT /api/users/{id} payload; nil fields are left
// unchanged. Password changes go through the dedicated endpoint.
type UpdateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=50"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Role     *Role   `json:"role" validate:"omitempty,oneof=admin manager employee"`
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
}

// UpdatePasswordRequest is the PUT /api/users/{id}/password payload.
type UpdatePasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}
