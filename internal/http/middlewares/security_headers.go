package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const defaultCSP = "default-src 'none'; frame-ancestors 'none'"

// SecurityHeaders hardens API responses. Uploaded images are embedded by the
// frontend from another origin, so they are marked cross-origin readable.
func SecurityHeaders(uploadPrefix string) gin.HandlerFunc {
	uploadPrefix = "/" + strings.Trim(uploadPrefix, "/") + "/"

	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("X-XSS-Protection", "0")
		c.Header("Content-Security-Policy", defaultCSP)
		if strings.HasPrefix(c.Request.URL.Path, uploadPrefix) {
			c.Header("Cross-Origin-Resource-Policy", "cross-origin")
		}
		c.Next()
	}
}
