// File: internal/auth/token_service.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"identity_backend/internal/common"
	"identity_backend/internal/config"
	"identity_backend/internal/domain"
	"identity_backend/internal/platform/crypto"
	"identity_backend/internal/user"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// refreshTokenBytes is the amount of randomness in a refresh token; the
// hex form is twice as long.
const refreshTokenBytes = 40

// TokenConfig holds the signing material and lifetimes for issued tokens.
// It is copied into the TokenService and never changes afterwards.
type TokenConfig struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// NewTokenConfig extracts token settings from the application config.
func NewTokenConfig(cfg *config.Config) TokenConfig {
	return TokenConfig{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTokenTTL(),
		RefreshTTL: cfg.RefreshTokenTTL(),
	}
}

// TokenService issues and verifies access tokens and manages refresh tokens.
type TokenService struct {
	cfg    TokenConfig
	tokens user.RefreshTokenRepository
	now    func() time.Time
	logger *zap.Logger
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces the wall clock used for issuing and checking expiry.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService creates a token service. The config's secret is copied.
func NewTokenService(cfg TokenConfig, tokens user.RefreshTokenRepository, logger *zap.Logger, opts ...TokenOption) (*TokenService, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token service: signing secret is empty")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token service: token lifetimes must be positive")
	}
	cfg.Secret = append([]byte(nil), cfg.Secret...)

	s := &TokenService{
		cfg:    cfg,
		tokens: tokens,
		now:    time.Now,
		logger: logger.Named("tokens"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IssueAccessToken signs {sub, email, roles} with HS256.
func (s *TokenService) IssueAccessToken(u *domain.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.AccessTTL)

	claims := &domain.Claims{
		Email: u.EmailCanonical,
		Roles: u.Roles.Strings(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.cfg.Secret)
	if err != nil {
		s.logger.Error("Failed to sign access token", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("could not sign access token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// VerifyAccessToken checks signature, algorithm and expiry. Every failure
// is reported as common.ErrInvalidToken.
func (s *TokenService) VerifyAccessToken(tokenString string) (*domain.Claims, error) {
	if tokenString == "" {
		return nil, common.ErrInvalidToken
	}
	claims := &domain.Claims{}
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(s.cfg.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.cfg.Secret, nil
	}, parserOpts...)
	if err != nil {
		s.logger.Debug("Access token rejected", zap.Error(err))
		return nil, common.ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// IssueRefreshToken persists a new random refresh token for u. Tokens issued
// earlier stay valid until they expire.
func (s *TokenService) IssueRefreshToken(ctx context.Context, u *domain.User, sourceIP string) (*domain.RefreshToken, error) {
	value, err := crypto.GenerateHexToken(refreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	now := s.now().UTC()
	rt := &domain.RefreshToken{
		UserID:      u.ID,
		Token:       value,
		Expires:     now.Add(s.cfg.RefreshTTL),
		CreatedAt:   now,
		CreatedByIP: sourceIP,
	}
	if err := s.tokens.Create(ctx, rt); err != nil {
		return nil, err
	}
	return rt, nil
}

// RedeemRefreshToken returns the stored token if it exists and has not
// expired; otherwise common.ErrInvalidToken.
func (s *TokenService) RedeemRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	if token == "" {
		return nil, common.ErrInvalidToken.WithDetails("Missing refresh token.")
	}
	rt, err := s.tokens.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken.WithDetails("Invalid refresh token.")
		}
		return nil, err
	}
	if rt.IsExpired(s.now()) {
		return nil, common.ErrInvalidToken.WithDetails("Invalid refresh token.")
	}
	return rt, nil
}

// PurgeExpired deletes refresh tokens that expired before now.
func (s *TokenService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, s.now().UTC())
}
