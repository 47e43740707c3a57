package handler

import (
	"net/http"

	"item-service/internal/auth/credentials"
	"item-service/internal/auth/provider"
	"item-service/internal/auth/resolver"
	"item-service/internal/logger"
	"item-service/internal/store"
	"item-service/internal/tokens"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	providers   *provider.Registry
	resolver    resolver.Resolver
	issuer      *tokens.Issuer
	credentials *credentials.Service
}

func NewHandler(
	registry *provider.Registry,
	resolver resolver.Resolver,
	issuer *tokens.Issuer,
	credentials *credentials.Service,
) *Handler {
	return &Handler{
		providers:   registry,
		resolver:    resolver,
		issuer:      issuer,
		credentials: credentials,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/api/auth/google/", h.GoogleLogin)
	r.GET("/api/auth/csrf/", h.CSRFToken)
	r.POST("/api/auth/token/refresh/", h.Refresh)
	r.POST("/api/auth/logout/", h.Logout)
	r.POST("/api/auth/login/", h.Login)
	r.POST("/api/auth/registration/", h.Register)

	r.GET("/oauth/login/:provider", h.redirectLogin)
	r.GET("/oauth/callback/:provider", h.redirectCallback)
}

type userPayload struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

type loginResponse struct {
	User   userPayload `json:"user"`
	Tokens tokens.Pair `json:"tokens"`
}

func newLoginResponse(user *store.User, pair tokens.Pair) loginResponse {
	return loginResponse{
		User: userPayload{
			Email:    user.Email,
			Username: user.Username,
		},
		Tokens: pair,
	}
}

// redirectLogin starts the browser-based OAuth flow: state + PKCE
// cookies, then a redirect to the provider's consent screen.
func (h *Handler) redirectLogin(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	state := generateState(c)
	_, codeChallenge := generatePKCE(c)

	authURL := p.AuthCodeURL(state, codeChallenge)
	c.Redirect(http.StatusFound, authURL)
}

// redirectCallback finishes the browser-based flow: code exchange, then
// the same resolution and token issuance as the token-POST endpoint.
func (h *Handler) redirectCallback(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	if !validateState(c) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "invalid state",
		})
		return
	}

	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oauth callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "authentication failed",
		})
		return
	}

	code := c.Query("code")
	if code == "" {
		logger.Error("oauth callback missing code and error", nil)
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	codeVerifier := getPKCEVerifier(c)
	if codeVerifier == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "missing pkce verifier",
		})
		return
	}

	identity, accessToken, err := p.ExchangeCode(
		c.Request.Context(),
		code,
		codeVerifier,
	)
	if err != nil {
		logger.Error("code exchange failed", map[string]any{
			"provider": providerName,
			"error":    err.Error(),
		})
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "authentication failed",
		})
		return
	}

	user, pair, ok := h.finishLogin(c, identity, accessToken)
	if !ok {
		return
	}

	logger.Info("oauth login succeeded", map[string]any{
		"provider": providerName,
		"user_id":  user.ID,
		"ip":       c.ClientIP(),
	})

	c.JSON(http.StatusOK, newLoginResponse(user, pair))
}

// Logout revokes the submitted refresh token. The response is idempotent:
// a missing or already-revoked token still yields 204.
func (h *Handler) Logout(c *gin.Context) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	_ = c.ShouldBindJSON(&req)

	if req.Refresh != "" {
		if err := h.issuer.Revoke(c.Request.Context(), req.Refresh); err != nil {
			logger.Warn("failed to revoke refresh token", map[string]any{
				"error": err.Error(),
			})
		}
	}

	c.Status(http.StatusNoContent)
}
