package auth

import (
	"github.com/Questdigiflex/META-CRM/internal/users"
)

// RegisterRequest captures the payload required to create an account.
type RegisterRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the token and user produced by a successful login.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	User        *users.UserDTO `json:"user"`
}

// UpdateLegacyTokenRequest carries the single-token update kept for accounts
// that have not migrated to named credentials.
type UpdateLegacyTokenRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
}
