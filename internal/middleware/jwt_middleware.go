package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gazemetrics/gazemetrics-api/internal/utils"
)

// JWTMiddleware authenticates requests with the bearer token issued at
// login and exposes the caller's identity to handlers through the gin
// context ("user_id", "email").
type JWTMiddleware struct{}

func NewJWTMiddleware() *JWTMiddleware {
	return &JWTMiddleware{}
}

func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			utils.Error(c, 401, "UNAUTHORIZED", "Missing or malformed authorization header")
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(token)
		if err != nil {
			utils.Error(c, 401, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}

// bearerToken extracts the credential from an "Authorization: Bearer x"
// header. The scheme is matched case-insensitively; anything else yields
// the empty string.
func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
