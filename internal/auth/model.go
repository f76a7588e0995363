// File: internal/auth/model.go
package auth

import (
	"time"

	"identity_backend/internal/user"
)

// SignUpRequest covers local and OAuth sign-up. Provider defaults to local.
type SignUpRequest struct {
	Email      string `json:"email" binding:"required,email,max=255"`
	Password   string `json:"password" binding:"omitempty,max=72"`
	FirstName  string `json:"firstName" binding:"omitempty,max=100"`
	LastName   string `json:"lastName" binding:"omitempty,max=100"`
	Username   string `json:"username" binding:"omitempty,min=3,max=100"`
	Provider   string `json:"provider" binding:"omitempty,oneof=local google facebook"`
	ProviderID string `json:"providerId" binding:"omitempty,max=255"`

	// ProviderAccessToken is required for google and facebook. The profile it
	// resolves to decides the account.
	ProviderAccessToken string `json:"providerAccessToken" binding:"omitempty,max=4096"`
}

// SignInRequest accepts an e-mail address or a username.
type SignInRequest struct {
	EmailOrUsername string `json:"emailOrUsername" binding:"required"`
	Password        string `json:"password" binding:"required"`
}

// RefreshTokenRequest is the optional body of POST /refresh-token; the
// refresh cookie takes precedence.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse is the payload returned by every sign-in path.
type TokenResponse struct {
	AccessToken          string             `json:"accessToken"`
	AccessTokenExpiresAt time.Time          `json:"accessTokenExpiresAt"`
	RefreshToken         string             `json:"refreshToken"`
	User                 *user.UserResponse `json:"user"`
}

func toTokenResponse(r *AuthResult) *TokenResponse {
	return &TokenResponse{
		AccessToken:          r.AccessToken,
		AccessTokenExpiresAt: r.AccessTokenExpiresAt,
		RefreshToken:         r.RefreshToken,
		User:                 user.ToUserResponse(r.User),
	}
}
