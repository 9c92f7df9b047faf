package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID      uuid.UUID
	Email       string
	DisplayName string
	Permissions []string
	JTI         string
}

// AccessTokenClaims is the typed JWT issued to clients. Permissions are the
// flat capability names checked by the permission middleware.
type AccessTokenClaims struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Permissions []string  `json:"permissions"`
	jwt.RegisteredClaims
}

// Identity is the verified actor threaded into every core operation.
type Identity struct {
	UserID      uuid.UUID
	Email       string
	DisplayName string
	Permissions []string
}

// IdentityFromClaims strips the JWT plumbing from validated claims.
func IdentityFromClaims(claims *AccessTokenClaims) Identity {
	if claims == nil {
		return Identity{}
	}
	return Identity{
		UserID:      claims.UserID,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		Permissions: append([]string(nil), claims.Permissions...),
	}
}
