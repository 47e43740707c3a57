package handler

import (
	"errors"
	"net/http"

	"item-service/internal/auth"
	"item-service/internal/auth/provider"
	"item-service/internal/auth/resolver"
	"item-service/internal/logger"
	"item-service/internal/store"
	"item-service/internal/tokens"

	"github.com/gin-gonic/gin"
)

type googleLoginRequest struct {
	AccessToken string `json:"access_token"`
}

// GoogleLogin handles the client-side login flow: the SPA obtains a
// Google access token via the provider SDK and posts it here. The token
// is verified server-side against the userinfo endpoint; a client-supplied
// profile payload is never trusted.
func (h *Handler) GoogleLogin(c *gin.Context) {
	var req googleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if req.AccessToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no access token provided"})
		return
	}

	p, err := h.providers.Get("google")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown oauth provider"})
		return
	}

	identity, err := p.VerifyAccessToken(c.Request.Context(), req.AccessToken)
	if err != nil {
		var upstream *provider.UpstreamError
		switch {
		case errors.As(err, &upstream):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "failed to verify token with provider",
				"details": upstream.Body,
			})
		case errors.Is(err, provider.ErrEmailMissing):
			c.JSON(http.StatusBadRequest, gin.H{"error": "email not provided"})
		default:
			logger.Error("token verification failed", map[string]any{
				"error": err.Error(),
			})
			c.JSON(http.StatusBadRequest, gin.H{"error": "authentication failed"})
		}
		return
	}

	user, pair, ok := h.finishLogin(c, identity, req.AccessToken)
	if !ok {
		return
	}

	logger.Info("google login succeeded", map[string]any{
		"user_id": user.ID,
		"ip":      c.ClientIP(),
	})

	c.JSON(http.StatusOK, newLoginResponse(user, pair))
}

// finishLogin resolves the identity to a user and issues credentials.
// On failure it writes the error response and returns ok=false. Detail
// for unexpected failures stays in the log; clients get a generic error.
func (h *Handler) finishLogin(c *gin.Context, identity *auth.Identity, accessToken string) (*store.User, tokens.Pair, bool) {
	user, err := h.resolver.Resolve(c.Request.Context(), identity, accessToken)
	if err != nil {
		if errors.Is(err, resolver.ErrAppNotConfigured) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "provider app not configured"})
			return nil, tokens.Pair{}, false
		}
		logger.Error("failed to resolve user", map[string]any{
			"provider": identity.Provider,
			"error":    err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{"error": "authentication failed"})
		return nil, tokens.Pair{}, false
	}

	pair, err := h.issuer.Issue(user)
	if err != nil {
		logger.Error("failed to issue tokens", map[string]any{
			"user_id": user.ID,
			"error":   err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{"error": "authentication failed"})
		return nil, tokens.Pair{}, false
	}

	return user, pair, true
}
