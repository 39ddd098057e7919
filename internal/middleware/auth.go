package middleware

import (
	"net/http"
	"strings"

	"github.com/01moynul/workshop-logistics/internal/auth"
	"github.com/01moynul/workshop-logistics/internal/models"
	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// AuthMiddleware verifies the session token and stores the principal.
// The token comes from "Authorization: Bearer <token>" or, for browser
// downloads that cannot set headers, the "token" query parameter.
// No token is 401; a token that fails verification is 403.
func AuthMiddleware(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, present := tokenFromRequest(c)
		if !present {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		principal, err := tokens.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if principal.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: Admin role required"})
			return
		}
		c.Next()
	}
}

// CurrentPrincipal returns the principal set by AuthMiddleware.
func CurrentPrincipal(c *gin.Context) (auth.Principal, bool) {
	raw, exists := c.Get(principalKey)
	if !exists {
		return auth.Principal{}, false
	}
	principal, ok := raw.(auth.Principal)
	return principal, ok
}

// tokenFromRequest reports present=true whenever the client sent any
// credential, even a malformed one, so that it is rejected with 403.
func tokenFromRequest(c *gin.Context) (string, bool) {
	if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
		parts := strings.Fields(header)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1], true
		}
		return "", true
	}
	if token := c.Query("token"); token != "" {
		return token, true
	}
	return "", false
}
