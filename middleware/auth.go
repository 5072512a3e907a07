package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mindspend/mindspend-api/utils"
)

const (
	contextUserID = "user_id"
	contextEmail  = "email"
)

// AuthMiddleware resolves the caller from the bearer token. A missing token
// is 401, an invalid or expired one is 403.
func AuthMiddleware(tokens *utils.TokenManager) gin.HandlerFunc {
	return authenticate(tokens, func(c *gin.Context) string {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return ""
		}
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	})
}

// QueryTokenMiddleware accepts the token as ?token= for websocket upgrades,
// where browsers cannot set headers. The Authorization header still wins.
func QueryTokenMiddleware(tokens *utils.TokenManager) gin.HandlerFunc {
	return authenticate(tokens, func(c *gin.Context) string {
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		}
		return c.Query("token")
	})
}

func authenticate(tokens *utils.TokenManager, extract func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extract(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token provided"})
			return
		}

		claims, err := tokens.ValidateToken(token)
		if err != nil {
			utils.SafeDebug("[Auth] token rejected on %s: %v", c.Request.URL.Path, err)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Unauthorized"})
			return
		}

		c.Set(contextUserID, claims.UserID)
		c.Set(contextEmail, claims.Email)
		c.Next()
	}
}

// GetUserID returns the authenticated caller, or "" on public routes.
func GetUserID(c *gin.Context) string {
	return c.GetString(contextUserID)
}

func GetUserEmail(c *gin.Context) string {
	return c.GetString(contextEmail)
}
