package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cdr-mock/internal/auth"
	"cdr-mock/internal/cdr"
	"cdr-mock/internal/envelope"
	"cdr-mock/internal/reporting"
	"cdr-mock/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

const (
	exportFilename     = "mitel_call_records.csv"
	historicalFilename = "telephonie_message_data.csv"
)

// --- Historical reporting ---

// Calls returns generated call records matching the query filters.
func (h Handlers) Calls(c *gin.Context) {
	q, echo, err := parseQuery(c, reporting.CallsLimits, recordDirection)
	if err != nil {
		fail(c, err)
		return
	}
	res, err := h.Reporting.Calls(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	logger.FromGin(c).Debug("calls generated", "records", len(res.Records), "attempts", res.Attempts)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    res.Records,
		"filters": echo,
		"pagination": reporting.Pagination{
			Limit:   q.Limit,
			Offset:  q.Offset,
			Total:   len(res.Records),
			HasMore: false,
		},
		"timestamp": h.timestamp(),
	})
}

// Stream returns generated records wrapped as broker envelopes.
func (h Handlers) Stream(c *gin.Context) {
	q, echo, err := parseQuery(c, reporting.StreamLimits, recordDirection)
	if err != nil {
		fail(c, err)
		return
	}
	envs, err := h.Reporting.Stream(c.Request.Context(), q, 0)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"messages":  envs,
		"count":     len(envs),
		"filters":   echo,
		"timestamp": h.timestamp(),
	})
}

// Export renders generated envelopes as a CSV attachment.
func (h Handlers) Export(c *gin.Context) {
	h.exportCSV(c, reporting.ExportLimits, exportFilename)
}

func (h Handlers) exportCSV(c *gin.Context, limits reporting.Limits, filename string) {
	q, _, err := parseQuery(c, limits, recordDirection)
	if err != nil {
		fail(c, err)
		return
	}

	// Buffer the document so a failure can still produce a JSON error instead of a cut-off file.
	var buf bytes.Buffer
	rows, err := h.Reporting.Export(c.Request.Context(), q, &buf)
	if err != nil {
		fail(c, err)
		return
	}
	logger.FromGin(c).Debug("csv exported", "rows", rows)

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Publish sends generated envelopes to the configured broker topic.
func (h Handlers) Publish(c *gin.Context) {
	q, _, err := parseQuery(c, reporting.PublishLimits, recordDirection)
	if err != nil {
		fail(c, err)
		return
	}
	if !h.Reporting.PublisherConfigured() {
		fail(c, reporting.ErrNoPublisher)
		return
	}
	n, topic, err := h.Reporting.Publish(c.Request.Context(), q)
	if err != nil {
		logger.FromGin(c).Error("publish failed", "topic", topic, "err", err)
		abortError(c, http.StatusBadGateway, codeBrokerError, "publishing to the broker failed")
		return
	}
	sess, _ := auth.SessionFromGin(c)
	h.Audit.LogPublish(c.Request.Context(), sess.AccountID, sess.Username, c.ClientIP(), topic, n)
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"published": n,
		"topic":     topic,
		"timestamp": h.timestamp(),
	})
}

func (h Handlers) Agents(c *gin.Context) {
	agents := h.Reporting.Agents()
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      agents,
		"count":     len(agents),
		"timestamp": h.timestamp(),
	})
}

func (h Handlers) Statistics(c *gin.Context) {
	now := h.Reporting.Now().UTC()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.Reporting.Statistics(),
		"period": gin.H{
			"startDate": now.Add(-24 * time.Hour).Format(time.RFC3339),
			"endDate":   now.Format(time.RFC3339),
		},
		"timestamp": now.Format(time.RFC3339),
	})
}

// --- Reporting API style ---

// CallDetailRecords accepts an epoch-millisecond window (startTime/endTime) and a callType
// of inbound/outbound/internal.
func (h Handlers) CallDetailRecords(c *gin.Context) {
	window, err := epochWindow(c.Query("startTime"), c.Query("endTime"))
	if err != nil {
		fail(c, err)
		return
	}
	limit, err := intParam(c, "limit", reporting.DetailRecordLimits.Default)
	if err != nil {
		fail(c, err)
		return
	}
	dir, err := directionParam(c.Query("callType"))
	if err != nil {
		fail(c, err)
		return
	}

	q := reporting.Query{
		Filter: reporting.Filter{
			Extension: strings.TrimSpace(c.Query("extension")),
			Direction: dir,
			Window:    window,
		},
		Limit: reporting.DetailRecordLimits.Clamp(limit),
	}
	res, err := h.Reporting.Calls(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"callDetailRecords": res.Records,
			"count":             len(res.Records),
			"metadata": gin.H{
				"generatedAt": h.timestamp(),
				"apiVersion":  "v1",
			},
		},
	})
}

// historicalMessage is the flattened envelope: key, value and headers are JSON text.
type historicalMessage struct {
	Timestamp      int64  `json:"timestamp"`
	TimestampType  string `json:"timestampType"`
	Partition      int    `json:"partition"`
	Offset         int64  `json:"offset"`
	Key            string `json:"key"`
	Value          string `json:"value"`
	Headers        string `json:"headers"`
	ExceededFields string `json:"exceededFields"`
}

func flatten(e envelope.Envelope) (historicalMessage, error) {
	key, err := json.Marshal(e.Key)
	if err != nil {
		return historicalMessage{}, fmt.Errorf("marshal key: %w", err)
	}
	value, err := json.Marshal(e.Value)
	if err != nil {
		return historicalMessage{}, fmt.Errorf("marshal value: %w", err)
	}
	return historicalMessage{
		Timestamp:      e.Timestamp,
		TimestampType:  e.TimestampType,
		Partition:      e.Partition,
		Offset:         e.Offset,
		Key:            string(key),
		Value:          string(value),
		Headers:        "[]",
		ExceededFields: e.ExceededFields,
	}, nil
}

// HistoricalData returns broker messages on the requested partition with key and value
// serialized to strings, as a topic consumer would see them.
func (h Handlers) HistoricalData(c *gin.Context) {
	q, _, err := parseQuery(c, reporting.HistoricalLimits, recordDirection)
	if err != nil {
		fail(c, err)
		return
	}
	partition, err := intParam(c, "partition", 0)
	if err != nil {
		fail(c, err)
		return
	}
	if partition < 0 {
		fail(c, fmt.Errorf("%w: partition must be >= 0", reporting.ErrInvalidParameter))
		return
	}

	envs, err := h.Reporting.Stream(c.Request.Context(), q, partition)
	if err != nil {
		fail(c, err)
		return
	}
	msgs := make([]historicalMessage, 0, len(envs))
	for _, e := range envs {
		m, err := flatten(e)
		if err != nil {
			fail(c, err)
			return
		}
		msgs = append(msgs, m)
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"messages":  msgs,
			"count":     len(msgs),
			"partition": partition,
		},
	})
}

func (h Handlers) HistoricalExport(c *gin.Context) {
	h.exportCSV(c, reporting.HistoricalLimits, historicalFilename)
}

// --- Helpers ---

func (h Handlers) Extensions(c *gin.Context) {
	exts := h.Reporting.Extensions("default")
	c.JSON(http.StatusOK, gin.H{
		"extensions": exts,
		"total":      len(exts),
	})
}

func (h Handlers) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"statistics": gin.H{
			"today":            h.Reporting.DailyStatistics(),
			"activeExtensions": len(cdr.Extensions),
			"timestamp":        h.timestamp(),
		},
	})
}

// directionParam maps inbound/outbound/internal onto record directions. The single-letter
// forms are accepted as well; empty means no filter.
func directionParam(v string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return "", nil
	case "inbound", "i":
		return cdr.DirectionInbound, nil
	case "outbound", "o":
		return cdr.DirectionOutbound, nil
	case "internal", "b":
		return cdr.DirectionBoth, nil
	default:
		return "", fmt.Errorf("%w: direction must be inbound, outbound or internal, got %q", reporting.ErrInvalidParameter, v)
	}
}

func epochWindow(start, end string) (cdr.Window, error) {
	var w cdr.Window
	var err error
	if w.Start, w.StartSet, err = epochMillis("startTime", start); err != nil {
		return cdr.Window{}, err
	}
	if w.End, w.EndSet, err = epochMillis("endTime", end); err != nil {
		return cdr.Window{}, err
	}
	if w.HasStart() && w.HasEnd() && w.Start.After(w.End) {
		return cdr.Window{}, fmt.Errorf("%w: startTime is after endTime", cdr.ErrInvalidDateRange)
	}
	return w, nil
}

func epochMillis(param, v string) (time.Time, bool, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false, nil
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false, &cdr.DateFormatError{Param: param, Value: v}
	}
	return time.UnixMilli(ms).UTC().Truncate(time.Second), true, nil
}
