package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/court-reservation-backend/internal/pkg/response"
)

// AuthRequired is a Gin middleware that validates JWT from Authorization: Bearer <token>
func AuthRequired(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, "missing Authorization header")
			return
		}

		userID, msg := authenticate(jwtManager, header)
		if msg != "" {
			abort(c, msg)
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a token is supplied and lets anonymous
// requests through. A malformed or expired token is still rejected.
func OptionalAuth(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		userID, msg := authenticate(jwtManager, header)
		if msg != "" {
			abort(c, msg)
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func authenticate(jwtManager *JWTManager, header string) (userID string, failure string) {
	scheme, tokenStr, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || tokenStr == "" {
		return "", "invalid Authorization header format"
	}

	claims, err := jwtManager.ParseAndValidate(tokenStr)
	if err != nil {
		return "", "invalid or expired token"
	}
	return claims.UserID(), ""
}

func abort(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{Error: msg})
}
