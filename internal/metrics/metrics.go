package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LedgerOperationsTotal counts credit/debit calls by operation, transaction type and outcome
	LedgerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Total number of ledger credit/debit operations",
		},
		[]string{"operation", "type", "outcome"},
	)

	// LedgerCoinsTotal sums coins moved through the ledger
	LedgerCoinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_coins_total",
			Help: "Total number of coins credited or debited",
		},
		[]string{"operation", "type"},
	)

	// LedgerOperationDuration tracks the database round trip of a ledger primitive
	LedgerOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Ledger primitive duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// MessagesSentTotal counts delivered chat messages by direction
	MessagesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Total number of chat messages sent",
		},
		[]string{"direction"},
	)

	// MonetizationEventsTotal counts add-on purchases and payouts
	MonetizationEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monetization_events_total",
			Help: "Total number of monetization add-on events",
		},
		[]string{"kind"},
	)

	// CacheRequestsTotal counts cache lookups by category and result
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Total number of cache lookups",
		},
		[]string{"category", "result"},
	)

	// ReconciliationDrift reports users whose cached balance differs from the transaction log
	ReconciliationDrift = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_reconciliation_drift_users",
			Help: "Number of users whose balance does not match the sum of their transactions",
		},
	)

	// ReconciliationRuns counts reconciliation passes by outcome
	ReconciliationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_reconciliation_runs_total",
			Help: "Total number of ledger reconciliation runs",
		},
		[]string{"outcome"},
	)

	// HTTPRequestsTotal counts API requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks API latency
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.3, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)
