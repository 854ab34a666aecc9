package auth

import (
	"github.com/google/uuid"

	dbtypes "github.com/tripgather/tripgather-backend/pkg/db/types"
)

// SignUpRequest is the sign-up body. Only email and password are required.
type SignUpRequest struct {
	Email       string        `json:"email" validate:"required,email"`
	Password    string        `json:"password" validate:"required,min=8"`
	Name        string        `json:"name"`
	Gender      *string       `json:"gender,omitempty"`
	Birthdate   *dbtypes.Date `json:"birthdate,omitempty"`
	ParadoxFlag bool          `json:"paradox_flag"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionUser is the identity echoed back after sign-up or login.
type SessionUser struct {
	UUID  uuid.UUID `json:"uuid"`
	Email string    `json:"email"`
}

// Tokens are written to the accessToken/refreshToken cookies, never to the body.
type Tokens struct {
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
}

// LoginResponse is returned by Login and Refresh.
type LoginResponse struct {
	Tokens
	User SessionUser `json:"user"`
}
