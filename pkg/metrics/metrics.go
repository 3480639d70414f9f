package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for monitoring
var (
	SolverTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settler_solver_ticks_total",
		Help: "The total number of solver ticks by outcome",
	}, []string{"status"})

	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "settler_solver_tick_seconds",
		Help:    "Time taken by a full solver tick",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	OpenIntents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "settler_open_intents",
		Help: "Open intents observed in the most recent solver tick",
	})

	FillAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settler_fill_attempts_total",
		Help: "Fill dispatches by result",
	}, []string{"result"})

	QuoteRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settler_quote_rejections_total",
		Help: "Quotes skipped by the solver, by reason",
	}, []string{"reason"})

	AttemptedIntents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "settler_attempted_intents",
		Help: "Size of the solver's attempted-intent dedup set",
	})

	LedgerHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "settler_ledger_height",
		Help: "Current time/height reported by the ledger adapter",
	})

	IntentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settler_intents_created_total",
		Help: "Intents created through the settlement API",
	})

	IntentsCanceled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settler_intents_canceled_total",
		Help: "Intents canceled through the settlement API",
	})

	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settler_api_requests_total",
		Help: "Settlement API requests by route and status code",
	}, []string{"route", "status"})
)
