// File: internal/middleware/auth.go
package middleware

import (
	"context"

	"identity_backend/internal/common"
	"identity_backend/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Authorizer resolves a credential into an identity under a route policy.
type Authorizer interface {
	Authorize(ctx context.Context, credential string, policy domain.RoutePolicy) (*domain.User, error)
}

// Authorize guards a route. The credential comes from the access token
// cookie, falling back to an "Authorization: Bearer" header. On success the
// identity (possibly nil on public routes) is stored in the gin context.
func Authorize(gate Authorizer, policy domain.RoutePolicy, accessCookieName string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := common.GetCredential(c, accessCookieName)

		identity, err := gate.Authorize(c.Request.Context(), credential, policy)
		if err != nil {
			logger.Debug("Request not authorized",
				zap.String("path", c.Request.URL.Path),
				zap.Bool("credential_present", credential != ""),
				zap.Error(err))
			common.RespondWithError(c, err)
			return
		}

		if identity != nil {
			c.Set(common.IdentityKey, identity)
			c.Set(common.UserIDKey, identity.ID)
			c.Set(common.UserRoleKey, string(identity.Roles.Principal()))
		}
		c.Next()
	}
}

// Guard binds a gate to a cookie name and returns a per-policy middleware
// factory.
func Guard(gate Authorizer, accessCookieName string, logger *zap.Logger) func(domain.RoutePolicy) gin.HandlerFunc {
	return func(policy domain.RoutePolicy) gin.HandlerFunc {
		return Authorize(gate, policy, accessCookieName, logger)
	}
}
