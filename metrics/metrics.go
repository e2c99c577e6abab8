// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/quickly-vote/models"
)

const namespace = "quickly_vote"

var (
	VoteOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vote_outcomes_total",
		Help:      "Vote submissions by outcome.",
	}, []string{"outcome"})

	PollFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_failures_total",
		Help:      "Failed ledger polls by the sync loop.",
	})

	Phase = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "phase",
		Help:      "Current election phase (0 pending, 1 open, 2 closed).",
	})

	RemainingSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "remaining_seconds",
		Help:      "Seconds left in the voting window.",
	})

	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "subscribers",
		Help:      "Active snapshot subscribers.",
	})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// ObserveOutcome counts one submission outcome
func ObserveOutcome(o models.Outcome) {
	VoteOutcomes.WithLabelValues(o.String()).Inc()
}

// ObserveSnapshot records phase gauges for a published snapshot
func ObserveSnapshot(s models.Snapshot) {
	Phase.Set(float64(s.Phase))
	RemainingSeconds.Set(float64(s.RemainingSeconds))
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
