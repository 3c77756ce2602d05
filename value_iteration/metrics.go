package value_iteration

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sweepTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "costfield_sweeps_total",
		Help: "Total value iteration sweeps run",
	}, []string{"mode"})

	stateUpdateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "costfield_state_updates_total",
		Help: "Total strict improvements written to the value field",
	}, []string{"mode"})

	solveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "costfield_solve_duration_seconds",
		Help:    "Wall time of a solve, from initialisation to fixed point or failure",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
	}, []string{"mode", "outcome"})

	solveSweeps = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "costfield_solve_sweeps",
		Help:    "Sweeps needed to reach the fixed point",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	solveErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "costfield_solve_errors_total",
		Help: "Solves aborted, by configuration error kind or cancellation",
	}, []string{"kind"})
)
