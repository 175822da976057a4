package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Info describes the service and its main endpoints.
func (h Handlers) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "Mitel MiContact Center Historical Reporting API",
		"service":     "cdr-mock",
		"version":     Version,
		"description": "Mock historical-reporting API serving synthetic call detail records",
		"endpoints": gin.H{
			"/api/v1/reporting/calls":                        "Get historical call records",
			"/api/v1/reporting/calls/stream":                 "Call records as broker envelopes",
			"/api/v1/reporting/calls/export":                 "Call records as CSV",
			"/api/v1/reporting/calls/publish":                "Publish call records to the broker",
			"/api/v1/reporting/agents":                       "Agent and extension information",
			"/api/v1/reporting/statistics":                   "Call statistics",
			"/api/v1/reporting/callDetailRecords":            "CDRs, reporting API style",
			"/api/v1/reporting/historicalData":               "Broker messages with serialized payloads",
			"/api/v1/reporting/historicalData/export":        "Broker messages as CSV",
			"/api/v1/accounts/{accountId}/callHistory":       "Call history, CloudLink style",
			"/api/v1/accounts/{accountId}/callHistory/query": "Call history query with filters",
			"/api/v1/extensions":                             "Extension catalog",
			"/api/v1/stats":                                  "Daily statistics",
			"/api/v1/auth/login":                             "Issue a bearer token",
			"/health":                                        "Health check",
			"/metrics":                                       "Prometheus metrics",
		},
	})
}

func (h Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": h.timestamp(),
		"service":   "cdr-mock",
		"version":   Version,
		"broker":    h.Reporting.PublisherConfigured(),
	})
}
