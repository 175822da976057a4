package httpapi

import (
	"net/http"

	"cdr-mock/internal/auth"
	"cdr-mock/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Register mounts every API route on r. gate guards the reporting routes; pass nil to leave
// them open.
func (h Handlers) Register(r gin.IRouter, gate gin.HandlerFunc) {
	r.GET("/", h.Info)
	r.GET("/health", h.Health)
	r.GET("/api/health", h.Health)

	v1 := r.Group("/api/v1")

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/session", auth.RequireSession(h.Tokens), h.Session)
	}

	api := v1.Group("")
	if gate != nil {
		api.Use(gate)
	}
	{
		rep := api.Group("/reporting")
		rep.GET("/calls", h.Calls)
		rep.GET("/calls/stream", h.Stream)
		rep.GET("/calls/export", h.Export)
		rep.POST("/calls/publish", h.Publish)
		rep.GET("/agents", h.Agents)
		rep.GET("/statistics", h.Statistics)
		rep.GET("/callDetailRecords", h.CallDetailRecords)
		rep.GET("/historicalData", h.HistoricalData)
		rep.GET("/historicalData/export", h.HistoricalExport)

		// Legacy aliases.
		api.GET("/cdr", h.Calls)
		api.GET("/cdr/stream", h.Stream)
		api.GET("/cdr/export", h.Export)

		acct := api.Group("/accounts/:accountId")
		acct.GET("/callHistory", h.CallHistory)
		acct.POST("/callHistory/query", h.CallHistoryQuery)

		api.GET("/extensions", h.Extensions)
		api.GET("/stats", h.Stats)
	}
}

// Recovery turns panics into the standard 500 error body.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		logger.FromGin(c).Error("panic recovered", "panic", rec)
		abortError(c, http.StatusInternalServerError, codeInternal, "internal error")
	})
}
