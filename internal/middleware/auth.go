package middleware

import (
	"net/http"
	"strings"

	"item-service/internal/tokens"

	"github.com/gin-gonic/gin"
)

const (
	// ContextUserID is the gin context key carrying the authenticated user id.
	ContextUserID = "userID"
	// ContextUserEmail is the gin context key carrying the user's email.
	ContextUserEmail = "userEmail"
)

type AuthMiddleware struct {
	issuer *tokens.Issuer
}

func NewAuthMiddleware(issuer *tokens.Issuer) *AuthMiddleware {
	return &AuthMiddleware{issuer: issuer}
}

// RequireAuth rejects requests without a valid bearer access token and
// attaches the token's identity to the gin context.
func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		claims, err := a.issuer.VerifyAccess(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextUserEmail, claims.Email)

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
