// File: internal/auth/auth_helper.go
package auth

import (
	"fmt"
	"net/http"
	"time"

	"identity_backend/internal/config"
	"identity_backend/internal/platform/crypto"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"
)

// CookieConfig describes the token cookies set after a successful sign-in.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	Secure      bool
	Domain      string
}

// NewCookieConfig extracts cookie settings from the application config.
func NewCookieConfig(cfg *config.Config) CookieConfig {
	return CookieConfig{
		AccessName:  cfg.AccessTokenCookie,
		RefreshName: cfg.RefreshTokenCookie,
		AccessTTL:   cfg.AccessCookieTTL(),
		RefreshTTL:  cfg.RefreshCookieTTL(),
		Secure:      cfg.CookieSecure,
		Domain:      cfg.CookieDomain,
	}
}

func setCookie(c *gin.Context, cc CookieConfig, name, value string, maxAge time.Duration) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cc.Domain,
		MaxAge:   int(maxAge / time.Second),
		Expires:  time.Now().Add(maxAge),
		Secure:   cc.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// setTokenCookies stores both tokens as httpOnly, SameSite=Lax cookies.
func setTokenCookies(c *gin.Context, cc CookieConfig, result *AuthResult) {
	setCookie(c, cc, cc.AccessName, result.AccessToken, cc.AccessTTL)
	setCookie(c, cc, cc.RefreshName, result.RefreshToken, cc.RefreshTTL)
}

// clearTokenCookies expires both token cookies.
func clearTokenCookies(c *gin.Context, cc CookieConfig) {
	for _, name := range []string{cc.AccessName, cc.RefreshName} {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   cc.Domain,
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			Secure:   cc.Secure,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// setOAuthCookie sets a short-lived cookie for the OAuth state.
func setOAuthCookie(c *gin.Context, cfg *config.Config, name, value string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   cfg.OAuthCookieMaxAgeMinutes * 60,
		Secure:   cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// getOAuthCookie retrieves and deletes an OAuth cookie.
func getOAuthCookie(c *gin.Context, cfg *config.Config, name string) (string, error) {
	cookie, err := c.Request.Cookie(name)
	if err != nil {
		return "", fmt.Errorf("%s cookie not found: %w", name, err)
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   -1,
		Secure:   cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return cookie.Value, nil
}

func generateAndSetOAuthState(c *gin.Context, cfg *config.Config) (string, error) {
	state, err := crypto.GenerateSecureRandomString(32)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	setOAuthCookie(c, cfg, cfg.OAuthStateCookieName, state)
	return state, nil
}

func getGoogleOAuthConfig(cfg *config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURI,
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint:     google.Endpoint,
	}
}

func getFacebookOAuthConfig(cfg *config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.FacebookClientID,
		ClientSecret: cfg.FacebookClientSecret,
		RedirectURL:  cfg.FacebookRedirectURI,
		Scopes:       []string{"email", "public_profile"},
		Endpoint:     facebook.Endpoint,
	}
}
