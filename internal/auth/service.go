// File: internal/auth/service.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"identity_backend/internal/common"
	"identity_backend/internal/domain"
	"identity_backend/internal/user"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// AuthResult is returned by every successful sign-in path.
type AuthResult struct {
	User                 *domain.User `json:"-"`
	AccessToken          string       `json:"accessToken"`
	AccessTokenExpiresAt time.Time    `json:"accessTokenExpiresAt"`
	RefreshToken         string       `json:"refreshToken"`
}

// RegisterInput creates an account. Password and the provider ids are
// optional; an account without a password can only sign in through OAuth.
type RegisterInput struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Username   string
	GoogleID   string
	FacebookID string
}

// Service orchestrates sign-up, sign-in, OAuth and refresh flows.
type Service struct {
	users      user.Repository
	tokens     *TokenService
	bcryptCost int
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewService creates the authentication service.
func NewService(users user.Repository, tokens *TokenService, bcryptCost int, logger *zap.Logger) *Service {
	return &Service{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		validate:   validator.New(),
		logger:     logger.Named("auth"),
	}
}

// Register creates an account with roles [User]. The canonical e-mail must
// be unused.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, common.ErrBadRequest.WithDetails("email is required")
	}

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil, common.ErrDuplicateUser
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user by email: %w", err)
	}

	u := &domain.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     email,
		Roles:     domain.Roles{domain.RoleUser},
	}
	if in.Username != "" {
		username := strings.TrimSpace(in.Username)
		u.Username = &username
	}
	if in.GoogleID != "" {
		u.SetProviderID(domain.ProviderGoogle, in.GoogleID)
	}
	if in.FacebookID != "" {
		u.SetProviderID(domain.ProviderFacebook, in.FacebookID)
	}
	if in.Password != "" {
		hashed, err := common.HashPassword(in.Password, s.bcryptCost)
		if err != nil {
			s.logger.Error("Failed to hash password during registration", zap.Error(err))
			return nil, err
		}
		u.Password = &hashed
	}

	if err := s.users.Create(ctx, u); err != nil {
		if _, ok := common.IsAPIError(err); ok {
			return nil, err
		}
		s.logger.Error("Failed to create user in repository", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered successfully", zap.String("userID", u.ID.String()))
	return u, nil
}

// Login accepts an e-mail address or a username. Every failure to match a
// user or password is reported as common.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, identifier, password, ip string) (result *AuthResult, err error) {
	defer func() { observeAttempt("sign_in", err) }()

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, common.ErrInvalidCredentials
	}

	var u *domain.User
	if s.validate.Var(identifier, "email") == nil {
		u, err = s.users.FindByCanonicalEmail(ctx, domain.CanonicalEmail(identifier))
	} else {
		u, err = s.users.FindByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Info("User not found during login")
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !u.HasPassword() || !common.CheckPasswordHash(password, *u.Password) {
		s.logger.Info("Password check failed during login", zap.String("userID", u.ID.String()))
		return nil, common.ErrInvalidCredentials
	}

	return s.issue(ctx, u, ip)
}

// LoginOrRegisterOAuth signs in the account linked to (provider, providerID),
// creating it on first use. A verified provider e-mail that matches an
// existing account links the provider id to that account.
func (s *Service) LoginOrRegisterOAuth(ctx context.Context, provider domain.Provider, providerID string, profile domain.OAuthProfile, ip string) (result *AuthResult, err error) {
	defer func() { observeAttempt("oauth_"+string(provider), err) }()

	profile.ProviderID = providerID
	u, err := s.resolveOrCreateUser(ctx, domain.NewOAuthSignUp(provider, profile))
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, u, ip)
}

// SignUp dispatches a tagged sign-up request and issues tokens for the
// resulting account.
func (s *Service) SignUp(ctx context.Context, req domain.SignUp, ip string) (result *AuthResult, err error) {
	defer func() { observeAttempt("sign_up", err) }()

	u, err := s.resolveOrCreateUser(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, u, ip)
}

// Refresh mints a new access token for the owner of refreshToken. The
// refresh token itself is returned unchanged and stays valid.
func (s *Service) Refresh(ctx context.Context, refreshToken, ip string) (result *AuthResult, err error) {
	defer func() { observeAttempt("refresh", err) }()

	rt, err := s.tokens.RedeemRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken.WithDetails("Refresh token owner no longer exists.")
		}
		return nil, fmt.Errorf("failed to load refresh token owner: %w", err)
	}

	accessToken, expiresAt, err := s.tokens.IssueAccessToken(u)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Access token refreshed", zap.String("userID", u.ID.String()), zap.String("ip", ip))
	return &AuthResult{
		User:                 u,
		AccessToken:          accessToken,
		AccessTokenExpiresAt: expiresAt,
		RefreshToken:         rt.Token,
	}, nil
}

func (s *Service) resolveOrCreateUser(ctx context.Context, req domain.SignUp) (*domain.User, error) {
	if err := req.Validate(); err != nil {
		return nil, common.ErrBadRequest.WithDetails(err.Error())
	}

	if req.Provider == domain.ProviderLocal {
		in := req.Local
		return s.Register(ctx, RegisterInput{
			Email:     in.Email,
			Password:  in.Password,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Username:  in.Username,
		})
	}

	profile := req.OAuth
	existing, err := s.users.FindByProvider(ctx, req.Provider, profile.ProviderID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up %s account: %w", req.Provider, err)
	}

	if profile.EmailVerified && profile.Email != "" {
		byEmail, err := s.users.FindByEmail(ctx, profile.Email)
		switch {
		case err == nil:
			return s.linkProvider(ctx, byEmail, req.Provider, profile.ProviderID)
		case !errors.Is(err, common.ErrNotFound):
			return nil, fmt.Errorf("failed to look up account by email: %w", err)
		}
	}

	in := RegisterInput{
		Email:     profile.Email,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
	}
	switch req.Provider {
	case domain.ProviderGoogle:
		in.GoogleID = profile.ProviderID
	case domain.ProviderFacebook:
		in.FacebookID = profile.ProviderID
	}
	u, err := s.Register(ctx, in)
	if errors.Is(err, common.ErrConflict) || errors.Is(err, common.ErrDuplicateUser) {
		// Lost a race with a concurrent first login for the same provider id.
		if existing, findErr := s.users.FindByProvider(ctx, req.Provider, profile.ProviderID); findErr == nil {
			return existing, nil
		}
	}
	return u, err
}

func (s *Service) linkProvider(ctx context.Context, u *domain.User, provider domain.Provider, providerID string) (*domain.User, error) {
	if current := u.ProviderID(provider); current != "" && current != providerID {
		return nil, common.ErrConflict.WithDetails(fmt.Sprintf("Account is already linked to another %s identity.", provider))
	}
	u.SetProviderID(provider, providerID)
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("Linked OAuth identity to existing account",
		zap.String("userID", u.ID.String()), zap.String("provider", string(provider)))
	return u, nil
}

func (s *Service) issue(ctx context.Context, u *domain.User, ip string) (*AuthResult, error) {
	accessToken, expiresAt, err := s.tokens.IssueAccessToken(u)
	if err != nil {
		return nil, err
	}
	rt, err := s.tokens.IssueRefreshToken(ctx, u, ip)
	if err != nil {
		s.logger.Error("Failed to persist refresh token", zap.Error(err), zap.String("userID", u.ID.String()))
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}
	return &AuthResult{
		User:                 u,
		AccessToken:          accessToken,
		AccessTokenExpiresAt: expiresAt,
		RefreshToken:         rt.Token,
	}, nil
}
