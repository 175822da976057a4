package main

import (
	"log/slog"
	"net/http"
	"time"

	"cdr-mock/internal/auth"
	"cdr-mock/internal/config"
	"cdr-mock/internal/httpapi"
	"cdr-mock/internal/metrics"
	"cdr-mock/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newEngine installs the per-request middleware. Recovery sits innermost so a recovered
// panic still reaches the request log line and the request metrics as a 500.
func newEngine(log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(logger.Middleware(log))
	r.Use(metrics.Middleware())
	r.Use(httpapi.Recovery())
	return r
}

// newRouter wires HTTP routes to handlers and wraps the engine in the transport-level
// middleware (CORS, rate limiting).
// Keep this file free of business logic. Handlers delegate to internal modules.
func newRouter(cfg config.Config, log *slog.Logger, h httpapi.Handlers) http.Handler {
	r := newEngine(log)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var gate gin.HandlerFunc
	if cfg.Auth.Required {
		gate = auth.RequireSession(h.Tokens)
	}
	h.Register(r, gate)

	var handler http.Handler = r
	if cfg.HTTP.RateLimitPerMinute > 0 {
		handler = httprate.Limit(
			cfg.HTTP.RateLimitPerMinute,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByRealIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"success":false,"error":{"code":"RATE_LIMITED","message":"too many requests"}}`))
			}),
		)(handler)
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTP.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Content-Disposition", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           300,
	})(handler)
}
