package httpapi

import (
	"errors"
	"net/http"
	"time"

	"cdr-mock/internal/audit"
	"cdr-mock/internal/auth"
	"cdr-mock/internal/metrics"
	"cdr-mock/pkg/logger"

	"github.com/gin-gonic/gin"
)

// --- Auth ---

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login checks credentials against the user directory and issues a bearer token.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, codeInvalidParameter, "username and password required")
		return
	}

	u, err := auth.Authenticate(c.Request.Context(), h.Users, req.Username, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failed").Inc()
		logger.FromGin(c).Warn("login rejected", "username", req.Username)
		h.Audit.LogSession(c.Request.Context(), audit.EventTypeLoginFailed, "", req.Username, c.ClientIP())
		fail(c, err)
		return
	}

	token, err := h.Tokens.Issue(c.Request.Context(), u.Username, u.AccountID)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failed").Inc()
		fail(c, err)
		return
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	logger.FromGin(c).Info("login", "username", u.Username, "account_id", u.AccountID)
	h.Audit.LogSession(c.Request.Context(), audit.EventTypeLogin, u.AccountID, u.Username, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"token":     token,
		"tokenType": "Bearer",
		"expiresIn": int(h.SessionTTL.Seconds()),
		"accountId": u.AccountID,
	})
}

// Logout revokes the presented bearer token.
func (h Handlers) Logout(c *gin.Context) {
	tok, ok := auth.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		abortError(c, http.StatusUnauthorized, codeUnauthorized, "missing bearer token")
		return
	}
	sess, _, err := h.Tokens.Validate(c.Request.Context(), tok)
	if err != nil {
		logger.FromGin(c).Warn("logout: session lookup failed", "error", err)
	}
	if err := h.Tokens.Revoke(c.Request.Context(), tok); err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			abortError(c, http.StatusUnauthorized, codeUnauthorized, "invalid token")
			return
		}
		fail(c, err)
		return
	}
	h.Audit.LogSession(c.Request.Context(), audit.EventTypeLogout, sess.AccountID, sess.Username, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Session describes the caller's session. Mounted behind auth.RequireSession.
func (h Handlers) Session(c *gin.Context) {
	sess, ok := auth.SessionFromGin(c)
	if !ok {
		abortError(c, http.StatusUnauthorized, codeUnauthorized, "no session")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": gin.H{
			"username":  sess.Username,
			"accountId": sess.AccountID,
			"issuedAt":  sess.IssuedAt.UTC().Format(time.RFC3339),
			"expiresAt": sess.ExpiresAt.UTC().Format(time.RFC3339),
		},
	})
}
