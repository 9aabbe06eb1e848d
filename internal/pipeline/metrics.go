package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess   = "success"
	outcomeFailed    = "failed"
	outcomeRejected  = "rejected"
	outcomeSkipped   = "skipped"
	outcomeRecovered = "recovered"
)

var (
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sagalog_transition_attempts_total",
		Help: "Transition attempts by outcome.",
	}, []string{"transition", "outcome"})

	attemptDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sagalog_transition_duration_seconds",
		Help:    "Time spent in transition handlers.",
		Buckets: prometheus.DefBuckets,
	}, []string{"transition"})
)
