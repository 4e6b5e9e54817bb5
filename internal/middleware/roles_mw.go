package middleware

import (
	"net/http"

	"shop_api/internal/model"

	"github.com/gin-gonic/gin"
)

// RequireCapability rejects callers whose role does not grant cap. It must run
// after JWTAuthMiddleware.
func RequireCapability(cap model.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := Authorizer(c)
		if auth == nil {
			Abort(c, http.StatusUnauthorized, "unauthorized", "Authentication required")
			return
		}
		if !auth.Can(cap) {
			Abort(c, http.StatusUnauthorized, "unauthorized", "Only admins can access this route")
			return
		}
		c.Next()
	}
}

// AdminMiddleware checks if the user may manage the catalog (CapManageCatalog)
func AdminMiddleware() gin.HandlerFunc {
	return RequireCapability(model.CapManageCatalog)
}
