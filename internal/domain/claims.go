// File: internal/domain/claims.go
package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the access token payload: {sub, email, roles} plus the
// registered exp/iat/iss claims.
type Claims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}
