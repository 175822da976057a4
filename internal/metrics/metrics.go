package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdrmock_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cdrmock_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// Generator metrics
	RecordsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cdrmock_records_generated_total",
			Help: "Total number of call records drawn by the query engine",
		},
	)

	RecordsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cdrmock_records_rejected_total",
			Help: "Total number of drawn call records discarded by filters",
		},
	)

	EnvelopesWrapped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdrmock_envelopes_total",
			Help: "Total number of envelopes rendered",
		},
		[]string{"format"}, // json, csv, broker
	)

	// Broker metrics
	BrokerPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdrmock_broker_publish_total",
			Help: "Total number of envelopes published to the broker",
		},
		[]string{"status"}, // success, failed
	)

	BrokerPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cdrmock_broker_publish_duration_seconds",
			Help:    "Time taken to publish a batch to the broker",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	// Auth metrics
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cdrmock_sessions_active",
			Help: "Sessions currently held by the in-memory token store",
		},
	)

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdrmock_logins_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"}, // success, failed
	)
)
