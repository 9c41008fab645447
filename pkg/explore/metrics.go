package explore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// sessionsTotal counts finished sessions by outcome
	sessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathfinder_sessions_total",
		Help: "Total exploration sessions by outcome",
	}, []string{"outcome"})

	// sessionDuration tracks how long sessions run
	sessionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pathfinder_session_duration_seconds",
		Help:    "Exploration session duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
	}, []string{"outcome"})

	// fetchesTotal counts knowledge-base lookups by result
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathfinder_fetches_total",
		Help: "Total knowledge base lookups by result",
	}, []string{"result"})

	// linksTotal counts evaluated links by the state they ended in
	linksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathfinder_links_total",
		Help: "Total evaluated links by resulting state",
	}, []string{"state"})
)

const (
	outcomeFound     = "found"
	outcomeNotFound  = "not_found"
	outcomeTimeout   = "timeout"
	outcomeCancelled = "cancelled"

	fetchOK        = "ok"
	fetchError     = "error"
	fetchDiscarded = "discarded"
)
