// File: internal/auth/gate.go
package auth

import (
	"context"

	"identity_backend/internal/accesscontrol"
	"identity_backend/internal/common"
	"identity_backend/internal/domain"
	"identity_backend/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Gate authenticates a request credential and enforces a route policy.
type Gate struct {
	tokens    *TokenService
	users     user.Repository
	hierarchy *accesscontrol.Hierarchy
	logger    *zap.Logger
}

// NewGate creates an authorization gate.
func NewGate(tokens *TokenService, users user.Repository, hierarchy *accesscontrol.Hierarchy, logger *zap.Logger) *Gate {
	return &Gate{
		tokens:    tokens,
		users:     users,
		hierarchy: hierarchy,
		logger:    logger.Named("gate"),
	}
}

// Authorize resolves the identity behind credential and checks it against
// policy. Public routes never fail authentication; they proceed with a nil
// identity instead. Role requirements are checked against the principal
// role and any one matching role is enough.
func (g *Gate) Authorize(ctx context.Context, credential string, policy domain.RoutePolicy) (*domain.User, error) {
	identity, err := g.authenticate(ctx, credential)
	if err != nil {
		if !policy.Public {
			return nil, err
		}
		identity = nil
	}

	if len(policy.Roles) == 0 {
		return identity, nil
	}
	if identity == nil {
		return nil, common.ErrForbidden
	}
	principal := identity.Roles.Principal()
	for _, required := range policy.Roles {
		if g.hierarchy.IsAuthorized(principal, required) {
			return identity, nil
		}
	}
	g.logger.Info("Role check failed",
		zap.String("userID", identity.ID.String()),
		zap.String("role", string(principal)))
	return nil, common.ErrForbidden
}

func (g *Gate) authenticate(ctx context.Context, credential string) (*domain.User, error) {
	if credential == "" {
		return nil, common.ErrUnauthorized
	}
	claims, err := g.tokens.VerifyAccessToken(credential)
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	u, err := g.users.FindByID(ctx, id)
	if err != nil {
		g.logger.Debug("Token subject could not be loaded", zap.String("subject", claims.Subject), zap.Error(err))
		return nil, common.ErrInvalidToken
	}
	return u, nil
}
