package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/recibo-api/internal/presentation/http/dto/response"
	"github.com/sangkips/recibo-api/pkg/utils"
)

// TokenValidator checks a bearer token and returns its claims
type TokenValidator interface {
	ValidateToken(token string) (*utils.JWTClaims, error)
}

// AuthMiddleware creates a JWT authentication middleware for staff routes
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("staff_username", claims.Username)
		c.Set("staff_role", claims.Role)

		c.Next()
	}
}
