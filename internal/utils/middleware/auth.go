package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/styleai/server/internal/module/auth"
	"github.com/styleai/server/internal/utils/requestctx"
)

const (
	// AuthorizationHeader is the header key for authorization.
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens.
	BearerPrefix = "Bearer "
	// UserKeyKey is the context key for the stable quota identity.
	UserKeyKey = "user_key"
	// UserClassKey is the context key for the account tier.
	UserClassKey = "user_class"
)

// TokenValidator defines the interface for access token validation.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// RequireAuth returns a middleware that rejects requests without a valid
// bearer token. Unauthenticated callers are not eligible to consume quota,
// so generation routes must sit behind this.
func RequireAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Authorization header required",
				},
			})
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "INVALID_TOKEN",
					"message": "Invalid or expired token",
				},
			})
			return
		}

		userKey := claims.UserKey()
		if userKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "INVALID_TOKEN",
					"message": "Token carries no usable identity",
				},
			})
			return
		}

		c.Set(UserKeyKey, userKey)
		c.Set(UserClassKey, claims.Class)
		c.Request = c.Request.WithContext(requestctx.WithUserKey(c.Request.Context(), userKey))

		c.Next()
	}
}

// extractBearerToken extracts the bearer token from the Authorization header.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader == "" {
		return ""
	}

	if strings.HasPrefix(authHeader, BearerPrefix) {
		return strings.TrimPrefix(authHeader, BearerPrefix)
	}

	return ""
}

// GetUserKey returns the stable user key from context.
// Returns empty string if the request is unauthenticated.
func GetUserKey(c *gin.Context) string {
	if val, exists := c.Get(UserKeyKey); exists {
		if key, ok := val.(string); ok {
			return key
		}
	}
	return ""
}

// GetUserClass returns the account tier from context.
func GetUserClass(c *gin.Context) string {
	if val, exists := c.Get(UserClassKey); exists {
		if class, ok := val.(string); ok {
			return class
		}
	}
	return ""
}
