package auth

import (
	"time"

	"github.com/synergy-ops/synergy-ops/internal/shared"
)

// User is an operator account.
type User struct {
	ID           int64       `json:"id"`
	Email        string      `json:"email"`
	DisplayName  string      `json:"displayName"`
	Role         shared.Role `json:"role"`
	PasswordHash string      `json:"-"`
	IsActive     bool        `json:"-"`
	CreatedAt    time.Time   `json:"-"`
}

// LoginInput carries the login payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
