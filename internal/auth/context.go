package auth

import "github.com/gin-gonic/gin"

const userIDKey = "userID"

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// ActorID returns the authenticated user's ID, or nil for anonymous requests.
func ActorID(c *gin.Context) *string {
	if id := GetUserID(c); id != "" {
		return &id
	}
	return nil
}
