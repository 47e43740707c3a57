package handler

import (
	"errors"
	"net/http"

	"item-service/internal/auth/credentials"
	"item-service/internal/logger"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.credentials.Register(
		c.Request.Context(),
		req.Email,
		req.Password,
	)

	if err != nil {
		switch {
		case errors.Is(err, credentials.ErrAlreadyRegistered):
			c.JSON(http.StatusConflict, gin.H{"error": "account already exists"})
		case errors.Is(err, credentials.ErrPasswordTooShort):
			c.JSON(http.StatusBadRequest, gin.H{"error": "password too short"})
		default:
			logger.Error("registration failed", map[string]any{
				"error": err.Error(),
			})
			c.JSON(http.StatusBadRequest, gin.H{"error": "registration failed"})
		}
		return
	}

	pair, err := h.issuer.Issue(user)
	if err != nil {
		logger.Error("failed to issue tokens", map[string]any{
			"user_id": user.ID,
			"error":   err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}

	c.JSON(http.StatusCreated, newLoginResponse(user, pair))
}
