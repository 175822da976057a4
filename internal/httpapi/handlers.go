package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cdr-mock/internal/audit"
	"cdr-mock/internal/auth"
	"cdr-mock/internal/cdr"
	"cdr-mock/internal/reporting"
	"cdr-mock/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Version is reported by the info and health endpoints.
const Version = "2.0.0"

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Reporting *reporting.Service
	Tokens    auth.TokenStore
	Users     auth.Directory
	// Audit may be nil.
	Audit *audit.Service

	// SessionTTL is reported to clients as expiresIn.
	SessionTTL time.Duration
}

// Error codes returned in {success:false, error:{code, message}} bodies.
const (
	codeInvalidDateFormat  = "INVALID_DATE_FORMAT"
	codeInvalidDateRange   = "INVALID_DATE_RANGE"
	codeInvalidParameter   = "INVALID_PARAMETER"
	codeInvalidCredentials = "INVALID_CREDENTIALS"
	codeUnauthorized       = "UNAUTHORIZED"
	codeForbidden          = "FORBIDDEN"
	codeBrokerUnavailable  = "BROKER_UNAVAILABLE"
	codeBrokerError        = "BROKER_ERROR"
	codeInternal           = "INTERNAL_ERROR"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Success bool     `json:"success"`
	Error   apiError `json:"error"`
}

func abortError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, errorBody{Error: apiError{Code: code, Message: msg}})
}

// fail maps service errors onto the HTTP error body. Anything unrecognised is a 500 and is
// logged; its text is not echoed to the caller.
func fail(c *gin.Context, err error) {
	var dfe *cdr.DateFormatError
	switch {
	case errors.As(err, &dfe):
		abortError(c, http.StatusBadRequest, codeInvalidDateFormat, dfe.Error())
	case errors.Is(err, cdr.ErrInvalidDateRange):
		abortError(c, http.StatusBadRequest, codeInvalidDateRange, err.Error())
	case errors.Is(err, reporting.ErrInvalidParameter):
		abortError(c, http.StatusBadRequest, codeInvalidParameter, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		abortError(c, http.StatusUnauthorized, codeInvalidCredentials, "invalid username or password")
	case errors.Is(err, reporting.ErrNoPublisher):
		abortError(c, http.StatusServiceUnavailable, codeBrokerUnavailable, "no message broker configured")
	default:
		_ = c.Error(err)
		logger.FromGin(c).Error("request failed", "err", err)
		abortError(c, http.StatusInternalServerError, codeInternal, "internal error")
	}
}

// intParam reads an optional integer query parameter.
func intParam(c *gin.Context, name string, def int) (int, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", reporting.ErrInvalidParameter, name, v)
	}
	return n, nil
}

// filtersEcho is the "filters" object echoed back by list endpoints. Unset filters are null.
type filtersEcho struct {
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
	Extension   *string `json:"extension"`
	Direction   *string `json:"direction"`
	MinDuration *int    `json:"minDuration"`
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// recordDirection takes the record's own I/O/B codes. Unknown codes are kept and simply
// match nothing.
func recordDirection(v string) (string, error) {
	return strings.ToUpper(strings.TrimSpace(v)), nil
}

// parseQuery reads the common reporting query parameters.
func parseQuery(c *gin.Context, limits reporting.Limits, direction func(string) (string, error)) (reporting.Query, filtersEcho, error) {
	var echo filtersEcho

	window, err := cdr.ParseRange("startDate", c.Query("startDate"), "endDate", c.Query("endDate"))
	if err != nil {
		return reporting.Query{}, echo, err
	}
	limit, err := intParam(c, "limit", limits.Default)
	if err != nil {
		return reporting.Query{}, echo, err
	}
	offset, err := intParam(c, "offset", 0)
	if err != nil {
		return reporting.Query{}, echo, err
	}
	if offset < 0 {
		return reporting.Query{}, echo, fmt.Errorf("%w: offset must be >= 0", reporting.ErrInvalidParameter)
	}
	dir, err := direction(c.Query("direction"))
	if err != nil {
		return reporting.Query{}, echo, err
	}
	minDuration, err := intParam(c, "minDuration", 0)
	if err != nil {
		return reporting.Query{}, echo, err
	}
	if minDuration < 0 {
		return reporting.Query{}, echo, fmt.Errorf("%w: minDuration must be >= 0", reporting.ErrInvalidParameter)
	}

	q := reporting.Query{
		Filter: reporting.Filter{
			Extension:   strings.TrimSpace(c.Query("extension")),
			Direction:   dir,
			MinDuration: minDuration,
			Window:      window,
		},
		Limit:  limits.Clamp(limit),
		Offset: offset,
	}

	echo = filtersEcho{
		StartDate: optional(c.Query("startDate")),
		EndDate:   optional(c.Query("endDate")),
		Extension: optional(q.Filter.Extension),
		Direction: optional(c.Query("direction")),
	}
	if _, ok := c.GetQuery("minDuration"); ok {
		echo.MinDuration = &minDuration
	}
	return q, echo, nil
}

func (h Handlers) timestamp() string {
	return h.Reporting.Now().UTC().Format(time.RFC3339)
}
