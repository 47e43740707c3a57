package handler

import (
	"net/http"
	"time"

	"item-service/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	csrfCookieName = "csrftoken"
	csrfTTL        = 30 * time.Minute
)

// CSRFToken issues an anti-forgery token for the frontend: the same
// value is set as a cookie and returned in the body. The API itself is
// bearer-token authenticated and does not check the cookie; the cookie
// is deliberately not HttpOnly so the frontend can read it.
func (h *Handler) CSRFToken(c *gin.Context) {
	token := utils.RandomString(32)

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		Secure:   c.Request.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(csrfTTL.Seconds()),
	})

	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")

	c.JSON(http.StatusOK, gin.H{"csrfToken": token})
}
