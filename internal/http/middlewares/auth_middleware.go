package middlewares

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/bloghub/internal/actorctx"
	"github.com/geocoder89/bloghub/internal/apperr"
	"github.com/geocoder89/bloghub/internal/config"
	"github.com/geocoder89/bloghub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type IdentityResolver interface {
	ResolveToken(ctx context.Context, token string) (user.Identity, error)
}

type AuthMiddleware struct {
	resolver IdentityResolver
}

func NewAuthMiddleware(resolver IdentityResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// RequireAuth accepts only "Authorization: Bearer <token>". The token is
// verified and resolved to a live user before the handler runs.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abort(c, http.StatusUnauthorized, "unauthenticated", "Not authorized, no token")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if raw == "" {
			abort(c, http.StatusUnauthorized, "unauthenticated", "Not authorized, no token")
			return
		}

		cctx, cancel := config.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		identity, err := m.resolver.ResolveToken(cctx, raw)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindUnauthenticated {
				abort(c, http.StatusUnauthorized, "unauthenticated", apperr.MessageOf(err))
				return
			}
			abort(c, http.StatusInternalServerError, "store_failure", "Could not verify credentials")
			return
		}

		// Stash useful bits of identity on the context
		c.Set(CtxUserID, identity.ID)
		c.Set(CtxRole, string(identity.Role))
		c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), identity))

		c.Next()
	}
}

// Optional helpers so handlers don’t need to know the magic keys.

func IdentityFromContext(c *gin.Context) (user.Identity, bool) {
	return actorctx.IdentityFrom(c.Request.Context())
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
