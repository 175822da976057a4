package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cdr-mock/internal/auth"
	"cdr-mock/internal/cdr"
	"cdr-mock/internal/reporting"

	"github.com/gin-gonic/gin"
)

// --- CloudLink call history ---

// accountParam returns the path account id, refusing accounts other than the caller's own
// when the request carries a session.
func accountParam(c *gin.Context) (string, bool) {
	accountID := strings.TrimSpace(c.Param("accountId"))
	if accountID == "" {
		abortError(c, http.StatusBadRequest, codeInvalidParameter, "accountId required")
		return "", false
	}
	if sess, ok := auth.SessionFromGin(c); ok && sess.AccountID != accountID {
		abortError(c, http.StatusForbidden, codeForbidden, "account does not belong to this session")
		return "", false
	}
	return accountID, true
}

// CallHistory is the GET form. direction takes inbound/outbound/internal.
func (h Handlers) CallHistory(c *gin.Context) {
	accountID, ok := accountParam(c)
	if !ok {
		return
	}
	q, _, err := parseQuery(c, reporting.CallHistoryLimits, directionParam)
	if err != nil {
		fail(c, err)
		return
	}

	res, err := h.Reporting.Calls(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}

	base := fmt.Sprintf("/api/v1/accounts/%s/callHistory", accountID)
	c.JSON(http.StatusOK, gin.H{
		"accountId": accountID,
		"callHistory": gin.H{
			"items":  res.Records,
			"total":  len(res.Records) + q.Offset,
			"offset": q.Offset,
			"limit":  q.Limit,
		},
		"_links": gin.H{
			"self": fmt.Sprintf("%s?limit=%d&offset=%d", base, q.Limit, q.Offset),
			"next": fmt.Sprintf("%s?limit=%d&offset=%d", base, q.Limit, q.Offset+q.Limit),
		},
	})
}

type callHistoryFilter struct {
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Extension   string `json:"extension"`
	Direction   string `json:"direction"`
	MinDuration int    `json:"minDuration"`
}

type callHistoryPagination struct {
	Limit  *int `json:"limit"`
	Offset int  `json:"offset"`
}

type callHistoryQueryRequest struct {
	Filter     callHistoryFilter     `json:"filter"`
	Pagination callHistoryPagination `json:"pagination"`
}

// CallHistoryQuery is the POST form; an empty body queries with defaults.
func (h Handlers) CallHistoryQuery(c *gin.Context) {
	accountID, ok := accountParam(c)
	if !ok {
		return
	}

	var req callHistoryQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortError(c, http.StatusBadRequest, codeInvalidParameter, "invalid json body")
		return
	}

	window, err := cdr.ParseRange("filter.startDate", req.Filter.StartDate, "filter.endDate", req.Filter.EndDate)
	if err != nil {
		fail(c, err)
		return
	}
	dir, err := directionParam(req.Filter.Direction)
	if err != nil {
		fail(c, err)
		return
	}
	if req.Filter.MinDuration < 0 || req.Pagination.Offset < 0 {
		fail(c, fmt.Errorf("%w: minDuration and offset must be >= 0", reporting.ErrInvalidParameter))
		return
	}
	limit := reporting.CallHistoryLimits.Default
	if req.Pagination.Limit != nil {
		limit = *req.Pagination.Limit
	}

	q := reporting.Query{
		Filter: reporting.Filter{
			Extension:   strings.TrimSpace(req.Filter.Extension),
			Direction:   dir,
			MinDuration: req.Filter.MinDuration,
			Window:      window,
		},
		Limit:  reporting.CallHistoryLimits.Clamp(limit),
		Offset: req.Pagination.Offset,
	}
	res, err := h.Reporting.Calls(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accountId": accountID,
		"queryResults": gin.H{
			"items":   res.Records,
			"total":   len(res.Records) + q.Offset,
			"offset":  q.Offset,
			"limit":   q.Limit,
			"hasMore": q.Limit > 0 && len(res.Records) == q.Limit,
		},
		"filter": req.Filter,
	})
}
