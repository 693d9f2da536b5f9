package middlewares

import (
	"net/http"

	"github.com/geocoder89/bloghub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(required user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)

		if !ok {
			abort(c, http.StatusUnauthorized, "unauthenticated", "Missing identity context")
			return
		}

		if identity.Role != required {
			abort(c, http.StatusForbidden, "forbidden", "Not authorized as an "+string(required))
			return
		}

		c.Next()
	}
}
