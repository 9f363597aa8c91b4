package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsSubmitted counts deposit, withdrawal and staking requests by kind
	RequestsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oura_requests_submitted_total",
			Help: "Total number of user requests submitted",
		},
		[]string{"kind"},
	)

	// RequestsResolved counts admin decisions by kind and outcome
	RequestsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oura_requests_resolved_total",
			Help: "Total number of requests approved or rejected",
		},
		[]string{"kind", "status"},
	)

	// LedgerAmount tracks the amounts moved through the ledger
	LedgerAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oura_ledger_amount",
			Help:    "Amount of tokens moved per ledger mutation",
			Buckets: []float64{0.01, 0.1, 1, 10, 100, 1000, 10000, 100000},
		},
		[]string{"type"},
	)

	// RewardsDistributed counts stakes that accrued a daily reward
	RewardsDistributed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "oura_rewards_distributed_total",
			Help: "Total number of daily stake rewards accrued",
		},
	)

	// Signups counts new accounts
	Signups = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "oura_signups_total",
			Help: "Total number of accounts created",
		},
	)

	// TokenPrice tracks the current token price
	TokenPrice = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "oura_token_price",
			Help: "Current token price",
		},
	)

	// WebSocketClients tracks connected WebSocket clients
	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "oura_ws_clients",
			Help: "Number of connected WebSocket clients",
		},
	)

	// ErrorsTotal counts errors by component and kind
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oura_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// HTTPRequestDuration tracks handler latency
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oura_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
