package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Payment outcomes used as the "outcome" label of PaymentsRecorded
const (
	OutcomePartial  = "partial"
	OutcomeSettled  = "settled"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeFailed   = "failed"
)

var (
	ExpensesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pantryledger_expenses_created_total",
		Help: "Expenses created, labeled by split method",
	}, []string{"method"})

	PaymentsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pantryledger_payments_total",
		Help: "Payment attempts against expenses, labeled by outcome",
	}, []string{"outcome"})

	SettlementConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pantryledger_settlement_conflicts_total",
		Help: "Settlement writes that lost a compare-and-swap race",
	})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pantryledger_events_dropped_total",
		Help: "Ledger events dropped because the publish buffer was full",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pantryledger_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pantryledger_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "route"})
)
