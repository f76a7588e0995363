// File: internal/auth/oauth_service.go
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"identity_backend/internal/common"
	"identity_backend/internal/config"
	"identity_backend/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var (
	// GoogleUserInfoURL is a variable so tests can point it at a stub.
	GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	// FacebookProfileURL is a variable so tests can point it at a stub.
	FacebookProfileURL = "https://graph.facebook.com/me?fields=id,first_name,last_name,email"
)

// profileBreakerMinRequests is how many profile calls a breaker sees before
// the failure ratio can trip it.
const profileBreakerMinRequests = 5

// OAuthService runs the authorization-code flow for Google and Facebook and
// signs the resulting identity in.
type OAuthService struct {
	cfg      *config.Config
	configs  map[domain.Provider]*oauth2.Config
	breakers map[domain.Provider]*gobreaker.CircuitBreaker[[]byte]
	auth     *Service
	logger   *zap.Logger
}

// NewOAuthService creates a new OAuth service.
func NewOAuthService(cfg *config.Config, auth *Service, logger *zap.Logger) *OAuthService {
	logger = logger.Named("OAuthService")
	return &OAuthService{
		cfg: cfg,
		configs: map[domain.Provider]*oauth2.Config{
			domain.ProviderGoogle:   getGoogleOAuthConfig(cfg),
			domain.ProviderFacebook: getFacebookOAuthConfig(cfg),
		},
		breakers: map[domain.Provider]*gobreaker.CircuitBreaker[[]byte]{
			domain.ProviderGoogle:   newProfileBreaker(domain.ProviderGoogle, logger),
			domain.ProviderFacebook: newProfileBreaker(domain.ProviderFacebook, logger),
		},
		auth:   auth,
		logger: logger,
	}
}

// providerStatusError is a non-200 answer from a profile endpoint.
type providerStatusError struct {
	status int
	body   string
}

func (e *providerStatusError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.status, e.body)
}

// newProfileBreaker opens after half of at least five profile calls fail and
// lets a trial call through after 30 seconds. Provider 4xx answers do not count as failures.
func newProfileBreaker(provider domain.Provider, logger *zap.Logger) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "oauth-" + string(provider),
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < profileBreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		IsSuccessful: func(err error) bool {
			var se *providerStatusError
			if errors.As(err, &se) {
				return se.status < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

func (s *OAuthService) oauthConfig(provider domain.Provider) (*oauth2.Config, error) {
	oc, ok := s.configs[provider]
	if !ok || oc.ClientID == "" {
		return nil, common.ErrServiceUnavailable.WithDetails(fmt.Sprintf("%s login is not configured.", provider))
	}
	return oc, nil
}

// LoginURL sets the state cookie and returns the provider consent URL.
func (s *OAuthService) LoginURL(c *gin.Context, provider domain.Provider) (string, error) {
	oc, err := s.oauthConfig(provider)
	if err != nil {
		return "", err
	}
	state, err := generateAndSetOAuthState(c, s.cfg)
	if err != nil {
		s.logger.Error("Failed to generate OAuth state", zap.String("provider", string(provider)), zap.Error(err))
		return "", common.ErrInternalServer.WithDetails("Could not initiate login.")
	}
	return oc.AuthCodeURL(state), nil
}

// HandleCallback verifies state, exchanges code and signs in the provider
// identity.
func (s *OAuthService) HandleCallback(c *gin.Context, provider domain.Provider, code, state string) (*AuthResult, error) {
	oc, err := s.oauthConfig(provider)
	if err != nil {
		return nil, err
	}

	storedState, err := getOAuthCookie(c, s.cfg, s.cfg.OAuthStateCookieName)
	if err != nil {
		s.logger.Warn("Failed to get stored OAuth state", zap.Error(err))
		return nil, common.ErrBadRequest.WithDetails("Invalid session or state mismatch.")
	}
	if state == "" || state != storedState {
		s.logger.Warn("OAuth state mismatch", zap.String("provider", string(provider)))
		return nil, common.ErrBadRequest.WithDetails("OAuth state mismatch.")
	}

	ctx := c.Request.Context()
	token, err := oc.Exchange(ctx, code)
	if err != nil {
		s.logger.Error("Failed to exchange auth code for token", zap.String("provider", string(provider)), zap.Error(err))
		return nil, common.ErrServiceUnavailable.WithDetails("Could not exchange authorization code.")
	}

	profile, err := s.FetchProfile(ctx, provider, oc.Client(ctx, token))
	if err != nil {
		return nil, err
	}

	result, err := s.auth.LoginOrRegisterOAuth(ctx, provider, profile.ProviderID, *profile, c.ClientIP())
	if err != nil {
		return nil, err
	}
	s.logger.Info("OAuth login successful", zap.String("provider", string(provider)), zap.String("userID", result.User.ID.String()))
	return result, nil
}

// FetchProfile reads the signed-in user's profile with an authorized client.
func (s *OAuthService) FetchProfile(ctx context.Context, provider domain.Provider, client *http.Client) (*domain.OAuthProfile, error) {
	switch provider {
	case domain.ProviderGoogle:
		var g struct {
			Sub           string `json:"sub"`
			Email         string `json:"email"`
			EmailVerified bool   `json:"email_verified"`
			GivenName     string `json:"given_name"`
			FamilyName    string `json:"family_name"`
			Picture       string `json:"picture"`
		}
		if err := s.getJSON(ctx, provider, client, GoogleUserInfoURL, &g); err != nil {
			return nil, err
		}
		return &domain.OAuthProfile{
			ProviderID:    g.Sub,
			Email:         strings.ToLower(g.Email),
			FirstName:     g.GivenName,
			LastName:      g.FamilyName,
			PictureURL:    g.Picture,
			EmailVerified: g.EmailVerified,
		}, nil
	case domain.ProviderFacebook:
		var f struct {
			ID        string `json:"id"`
			Email     string `json:"email"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
		}
		if err := s.getJSON(ctx, provider, client, FacebookProfileURL, &f); err != nil {
			return nil, err
		}
		// Graph gives no verification flag, so Facebook addresses never link
		// to an existing account.
		return &domain.OAuthProfile{
			ProviderID: f.ID,
			Email:      strings.ToLower(f.Email),
			FirstName:  f.FirstName,
			LastName:   f.LastName,
		}, nil
	}
	return nil, common.ErrBadRequest.WithDetails(fmt.Sprintf("Unsupported provider %q.", provider))
}

// VerifyAccessToken resolves a provider access token supplied by a client to
// the profile it belongs to.
func (s *OAuthService) VerifyAccessToken(ctx context.Context, provider domain.Provider, accessToken string) (*domain.OAuthProfile, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, common.ErrInvalidCredentials.WithDetails("A provider access token is required.")
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))
	profile, err := s.FetchProfile(ctx, provider, client)
	if err != nil {
		return nil, err
	}
	if profile.ProviderID == "" {
		return nil, common.ErrInvalidCredentials.WithDetails("Provider did not return an account id.")
	}
	return profile, nil
}

func (s *OAuthService) getJSON(ctx context.Context, provider domain.Provider, client *http.Client, url string, out interface{}) error {
	breaker, ok := s.breakers[provider]
	if !ok {
		return common.ErrBadRequest.WithDetails(fmt.Sprintf("Unsupported provider %q.", provider))
	}

	body, err := breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build profile request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return nil, &providerStatusError{status: resp.StatusCode, body: string(b)}
		}
		return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	})
	if err != nil {
		var se *providerStatusError
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			s.logger.Warn("OAuth profile call short-circuited", zap.String("provider", string(provider)))
			return common.ErrServiceUnavailable.WithDetails(fmt.Sprintf("%s is temporarily unavailable.", provider))
		case errors.As(err, &se) && (se.status == http.StatusUnauthorized || se.status == http.StatusForbidden):
			s.logger.Warn("OAuth provider rejected access token", zap.String("provider", string(provider)), zap.Int("status", se.status))
			return common.ErrInvalidCredentials.WithDetails("Provider rejected the access token.")
		case errors.As(err, &se):
			s.logger.Error("OAuth profile request failed", zap.Int("status", se.status), zap.String("body", se.body))
			return common.ErrServiceUnavailable.WithDetails(fmt.Sprintf("Provider returned status %d for user info.", se.status))
		default:
			s.logger.Error("Failed to fetch OAuth profile", zap.Error(err))
			return common.ErrServiceUnavailable.WithDetails("Could not fetch user info from provider.")
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		s.logger.Error("Failed to decode OAuth profile", zap.Error(err))
		return common.ErrInternalServer
	}
	return nil
}
