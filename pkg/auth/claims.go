package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Email  string
	JTI    string
}

// AccessTokenClaims represents the typed JWT stored in the accessToken cookie.
type AccessTokenClaims struct {
	UserID uuid.UUID `json:"user_uuid"`
	Email  string    `json:"email,omitempty"`
	jwt.RegisteredClaims
}
