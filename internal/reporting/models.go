package reporting

import (
	"cdr-mock/internal/cdr"
)

// Limits is an endpoint's default and ceiling for the number of records per response.
type Limits struct {
	Default int
	Max     int
}

// Per-endpoint limits.
var (
	CallsLimits        = Limits{Default: 50, Max: 500}
	StreamLimits       = Limits{Default: 50, Max: 500}
	ExportLimits       = Limits{Default: 100, Max: 1000}
	PublishLimits      = Limits{Default: 100, Max: 1000}
	CallHistoryLimits  = Limits{Default: 50, Max: 500}
	DetailRecordLimits = Limits{Default: 100, Max: 1000}
	HistoricalLimits   = Limits{Default: 10, Max: 100}
)

// Clamp bounds a requested limit to [0, Max].
func (l Limits) Clamp(n int) int {
	if n > l.Max {
		return l.Max
	}
	if n < 0 {
		return 0
	}
	return n
}

// Filter is a conjunction of independent predicates. Zero values disable a predicate.
type Filter struct {
	Extension   string
	Direction   string
	MinDuration int

	// Window constrains where call dates are sampled; it is not a rejection predicate.
	Window cdr.Window
}

// Match reports whether rec satisfies every enabled predicate.
func (f Filter) Match(rec cdr.CallRecord) bool {
	if f.Extension != "" && rec.Extno != f.Extension {
		return false
	}
	if f.Direction != "" && rec.Direction != f.Direction {
		return false
	}
	if rec.Duration < f.MinDuration {
		return false
	}
	return true
}

// Query is one request against the engine.
//
// Offset is carried for echoing only. Every request regenerates from scratch, so skipping
// records would not make pages stable anyway.
type Query struct {
	Filter Filter
	Limit  int
	Offset int
}

// CallsResult is the outcome of a bounded rejection-sampling run.
type CallsResult struct {
	Records  []cdr.CallRecord
	Attempts int
	Rejected int
}

// Pagination is echoed back in list responses.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
}

// Agent is a synthetic agent/extension status row.
type Agent struct {
	Extension   string `json:"extension"`
	Username    string `json:"username"`
	GroupNumber string `json:"groupNumber"`
	DeviceID    string `json:"deviceId"`
	Status      string `json:"status"`
}

// ExtensionStatus is the CloudLink-style extension listing row.
type ExtensionStatus struct {
	Extension string `json:"extension"`
	Username  string `json:"username"`
	Status    string `json:"status"`
	AccountID string `json:"accountId"`
}

type CallVolume struct {
	TotalCalls    int `json:"totalCalls"`
	InboundCalls  int `json:"inboundCalls"`
	OutboundCalls int `json:"outboundCalls"`
	AnsweredCalls int `json:"answeredCalls"`
	MissedCalls   int `json:"missedCalls"`
}

type CallMetrics struct {
	AverageDuration int     `json:"averageDuration"`
	AverageWaitTime int     `json:"averageWaitTime"`
	AverageHoldTime int     `json:"averageHoldTime"`
	ServiceLevel    float64 `json:"serviceLevel"`
}

type JourneyMetrics struct {
	TotalJourneys           int     `json:"totalJourneys"`
	CompletedJourneys       int     `json:"completedJourneys"`
	AverageContactPoints    float64 `json:"averageContactPoints"`
	AverageExperienceRating float64 `json:"averageExperienceRating"`
}

type AgentMetrics struct {
	TotalAgents       int `json:"totalAgents"`
	ActiveAgents      int `json:"activeAgents"`
	AverageHandleTime int `json:"averageHandleTime"`
}

// Statistics is a random KPI summary. It is not derived from generated records.
type Statistics struct {
	CallVolume     CallVolume     `json:"callVolume"`
	CallMetrics    CallMetrics    `json:"callMetrics"`
	JourneyMetrics JourneyMetrics `json:"journeyMetrics"`
	AgentMetrics   AgentMetrics   `json:"agentMetrics"`
}

// DailyStatistics is the CloudLink-style "today" summary.
type DailyStatistics struct {
	TotalCalls         int `json:"totalCalls"`
	InboundCalls       int `json:"inboundCalls"`
	OutboundCalls      int `json:"outboundCalls"`
	AverageDuration    int `json:"averageDuration"`
	AverageWaitTime    int `json:"averageWaitTime"`
	AnsweredPercentage int `json:"answeredPercentage"`
	MissedCalls        int `json:"missedCalls"`
}
