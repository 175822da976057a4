package httpapi

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cdr-mock/internal/audit"
	"cdr-mock/internal/auth"
	"cdr-mock/pkg/logger"

	"github.com/gin-gonic/gin"
)

type loginResponse struct {
	Success   bool   `json:"success"`
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	ExpiresIn int    `json:"expiresIn"`
	AccountID string `json:"accountId"`
}

func TestAuthGate_LoginUseLogout(t *testing.T) {
	s := newTestServer(t, serverOpts{gate: true})

	if w := s.do(http.MethodGet, "/api/v1/reporting/calls?limit=1", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Fatalf("expected health to stay public, got %d", w.Code)
	}

	w := s.do(http.MethodPost, "/api/v1/auth/login", `{"username":"admin","password":"admin123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	login := decode[loginResponse](t, w)
	if !login.Success || login.Token == "" || login.TokenType != "Bearer" || login.ExpiresIn != 3600 || login.AccountID != "acme" {
		t.Fatalf("unexpected login response: %+v", login)
	}
	bearer := "Bearer " + login.Token

	if w := s.do(http.MethodGet, "/api/v1/reporting/calls?limit=1", "", "Authorization", bearer); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", w.Code, w.Body.String())
	}
	if w := s.do(http.MethodGet, "/api/v1/auth/session", "", "Authorization", bearer); w.Code != http.StatusOK {
		t.Fatalf("expected session info, got %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/api/v1/accounts/other/callHistory", "", "Authorization", bearer); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign account, got %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/api/v1/accounts/acme/callHistory?limit=1", "", "Authorization", bearer); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for own account, got %d", w.Code)
	}

	if w := s.do(http.MethodPost, "/api/v1/auth/logout", "", "Authorization", bearer); w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/api/v1/reporting/calls?limit=1", "", "Authorization", bearer); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", w.Code)
	}

	evs := s.audit.Events()
	if len(evs) != 2 || evs[0].Type != audit.EventTypeLogin || evs[1].Type != audit.EventTypeLogout {
		t.Fatalf("expected login and logout audit events, got %+v", evs)
	}
	if evs[1].AccountID != "acme" || evs[1].Username != "admin" {
		t.Fatalf("expected logout attributed to the session, got %+v", evs[1])
	}
}

func TestLogin_Rejections(t *testing.T) {
	s := newTestServer(t, serverOpts{})

	w := s.do(http.MethodPost, "/api/v1/auth/login", `{"username":"admin","password":"nope"}`)
	if w.Code != http.StatusUnauthorized || decode[errResponse](t, w).Error.Code != codeInvalidCredentials {
		t.Fatalf("expected 401 INVALID_CREDENTIALS, got %d: %s", w.Code, w.Body.String())
	}
	if evs := s.audit.Events(); len(evs) != 1 || evs[0].Type != audit.EventTypeLoginFailed {
		t.Fatalf("expected a login_failed audit event, got %+v", evs)
	}
	if w := s.do(http.MethodPost, "/api/v1/auth/login", `{"username":"admin"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing password, got %d", w.Code)
	}
	if w := s.do(http.MethodPost, "/api/v1/auth/logout", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for logout without token, got %d", w.Code)
	}
}

type flakyTokens struct {
	revoked bool
}

func (f *flakyTokens) Issue(context.Context, string, string) (string, error) {
	return "", errors.New("not used")
}

func (f *flakyTokens) Validate(context.Context, string) (auth.Session, bool, error) {
	return auth.Session{}, false, errors.New("redis: connection refused")
}

func (f *flakyTokens) Revoke(context.Context, string) error {
	f.revoked = true
	return nil
}

func TestLogout_LogsLookupFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	tokens := &flakyTokens{}
	h := Handlers{Tokens: tokens}

	r := gin.New()
	r.Use(logger.Middleware(logger.NewWithWriter("local", &buf)))
	r.POST("/logout", h.Logout)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || !tokens.revoked {
		t.Fatalf("expected revoke to proceed, got %d revoked=%v", w.Code, tokens.revoked)
	}
	if !strings.Contains(buf.String(), "session lookup failed") || !strings.Contains(buf.String(), "connection refused") {
		t.Fatalf("expected lookup failure logged, got %q", buf.String())
	}
}
