package main

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cdr-mock/internal/auth"
	"cdr-mock/internal/cdr"
	"cdr-mock/internal/config"
	"cdr-mock/internal/httpapi"
	"cdr-mock/internal/reporting"

	"github.com/gin-gonic/gin"
)

func testRouter(t *testing.T, cfg config.Config) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	signer, err := auth.NewSigner(cfg.Auth.JWTSecret, "", cfg.Auth.SessionTTL)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	h := httpapi.Handlers{
		Reporting:  reporting.NewService(cdr.NewFactory()),
		Tokens:     auth.NewStore(signer, auth.NewMemoryBackend(nil)),
		Users:      auth.NewStaticDirectory(auth.DemoUsers()),
		SessionTTL: cfg.Auth.SessionTTL,
	}
	return newRouter(cfg, slog.New(slog.NewJSONHandler(io.Discard, nil)), h)
}

func TestRouter_CORSPreflight(t *testing.T) {
	r := testRouter(t, config.Config{HTTP: config.HTTPConfig{CORSOrigins: []string{"https://dash.example"}}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/reporting/calls", nil)
	req.Header.Set("Origin", "https://dash.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example" {
		t.Fatalf("expected allowed origin echoed, got %q (status %d)", got, w.Code)
	}
}

func TestRouter_MetricsExposed(t *testing.T) {
	r := testRouter(t, config.Config{})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/reporting/calls?limit=2", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, name := range []string{"cdrmock_http_requests_total", "cdrmock_records_generated_total"} {
		if !strings.Contains(body, name) {
			t.Fatalf("expected %s in metrics output", name)
		}
	}
}

func TestRouter_AuthRequired(t *testing.T) {
	r := testRouter(t, config.Config{Auth: config.AuthConfig{Required: true, SessionTTL: time.Hour}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reporting/agents", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	login := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{"username":"admin","password":"admin123"}`))
	login.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, login)
	if w.Code != http.StatusOK {
		t.Fatalf("expected login 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRouter_RateLimit(t *testing.T) {
	r := testRouter(t, config.Config{HTTP: config.HTTPConfig{RateLimitPerMinute: 2}})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected 200,200,429 got %v", codes)
	}
}

func TestEngine_PanicIsLoggedAsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := newEngine(slog.New(slog.NewJSONHandler(&buf, nil)))
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	out := buf.String()
	if !strings.Contains(out, `"msg":"panic recovered"`) {
		t.Fatalf("expected panic line, got %q", out)
	}
	if !strings.Contains(out, `"msg":"request"`) || !strings.Contains(out, `"status":500`) {
		t.Fatalf("expected request summary with status 500, got %q", out)
	}
}
