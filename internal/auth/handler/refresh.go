package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// Refresh rotates a refresh token into a fresh credential pair. The used
// token is revoked, so replaying it fails.
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Refresh == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no refresh token provided"})
		return
	}

	pair, err := h.issuer.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	c.JSON(http.StatusOK, pair)
}
