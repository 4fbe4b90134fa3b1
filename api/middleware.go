package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	contextUserID = "user_id"
	contextRole   = "role"
)

// AuthMiddleware validates the bearer token and stores the caller identity
// on the request context.
func AuthMiddleware(jwtService *JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(contextUserID, claims.UserID)
		c.Set(contextRole, claims.Role)

		c.Next()
	}
}

// AdminMiddleware restricts a route group to operator tokens.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(contextRole)
		if !exists || role != RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Operator access required", "code": "permission-denied"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// callerID returns the authenticated user id from the request context
func callerID(c *gin.Context) int64 {
	userID, _ := c.Get(contextUserID)
	id, _ := userID.(int64)
	return id
}
