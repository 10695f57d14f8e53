package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kebisafe/kebisafe/internal/middleware"
	"github.com/kebisafe/kebisafe/internal/security"
)

type loginRequest struct {
	Name     string `json:"name" form:"name" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "credentials_required"})
		return
	}

	nameOK := subtle.ConstantTimeCompare([]byte(req.Name), []byte(h.cfg.Security.OwnerName)) == 1
	passwordOK, err := security.VerifyPassword(req.Password, h.cfg.Security.OwnerPasswordHash)
	if err != nil {
		h.log.Error().Err(err).Msg("owner password hash unusable")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}
	if !nameOK || !passwordOK {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
		return
	}

	token, err := h.sessions.Start(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("session start failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	maxAge := int(h.cfg.Security.SessionTTL.Seconds())
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", h.cfg.Environment == "production", true)
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h HandlerSet) Logout(c *gin.Context) {
	token := c.GetString(middleware.SessionTokenKey)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.sessions.End(c.Request.Context(), token); err != nil {
		h.log.Error().Err(err).Msg("session end failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.cfg.Environment == "production", true)
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) Me(c *gin.Context) {
	if c.GetString(middleware.SessionIDKey) == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": h.cfg.Security.OwnerName})
}

// CSRFToken hands the owner the anti-forgery token every mutating request
// must carry. Reissuing replaces the previous token for the session.
func (h HandlerSet) CSRFToken(c *gin.Context) {
	sessionID := c.GetString(middleware.SessionIDKey)
	if sessionID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	token, err := h.tokens.Issue(c.Request.Context(), sessionID)
	if err != nil {
		h.log.Error().Err(err).Msg("csrf issue failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"csrfToken": token})
}
