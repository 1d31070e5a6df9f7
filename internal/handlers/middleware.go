package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simts-edu/casesim-service/internal/models"
	"github.com/simts-edu/casesim-service/internal/services"
)

const (
	ctxClaims    = "claims"
	ctxRole      = "role"
	ctxUsername  = "username"
	ctxStudentID = "student_id"
)

// AuthMiddleware validates the bearer token and stores the claims on
// the request context
func AuthMiddleware(auth services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing bearer token",
			})
			return
		}

		claims, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid or expired token",
			})
			return
		}

		c.Set(ctxClaims, claims)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxUsername, claims.Username)
		if claims.StudentID != 0 {
			c.Set(ctxStudentID, claims.StudentID)
		}

		c.Next()
	}
}

// RequireRole rejects requests whose token carries a different role
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := MustClaims(c)
		if claims == nil || claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "Insufficient permissions",
			})
			return
		}
		c.Next()
	}
}

// MustClaims returns the token claims set by AuthMiddleware, or nil
func MustClaims(c *gin.Context) *services.TokenClaims {
	value, exists := c.Get(ctxClaims)
	if !exists {
		return nil
	}
	claims, ok := value.(*services.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}
