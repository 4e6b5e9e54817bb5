package middleware

import (
	"net/http"
	"strings"

	"shop_api/internal/model"
	"shop_api/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	AuthUserKey   = "authUser"
	AuthRoleKey   = "authRole"
	AuthClaimsKey = "authClaims"
)

// JWTAuthMiddleware creates a middleware for JWT authentication
func JWTAuthMiddleware(jwtUtil *utils.JWTUtil) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			Abort(c, http.StatusUnauthorized, "unauthorized", "Authorization header required")
			return
		}

		scheme, tokenString, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(tokenString) == "" {
			Abort(c, http.StatusUnauthorized, "unauthorized", "Invalid authorization header format")
			return
		}

		claims, err := jwtUtil.ValidateToken(strings.TrimSpace(tokenString))
		if err != nil {
			Abort(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		c.Set(AuthUserKey, claims.UserID)
		c.Set(AuthRoleKey, claims.Role)
		c.Set(AuthClaimsKey, claims)

		c.Next()
	}
}

// UserID returns the authenticated user id set by JWTAuthMiddleware.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(AuthUserKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// Claims returns the verified token claims; they implement model.Authorizer.
func Claims(c *gin.Context) (*utils.JWTClaims, bool) {
	v, ok := c.Get(AuthClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*utils.JWTClaims)
	return claims, ok
}

// Authorizer returns the caller's capabilities, or nil when unauthenticated.
func Authorizer(c *gin.Context) model.Authorizer {
	if claims, ok := Claims(c); ok {
		return claims
	}
	return nil
}
