package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CategoryOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whitelister_category_outcomes_total",
			Help: "Category pipeline outcomes by status",
		},
		[]string{"category", "status"},
	)

	ChainCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whitelister_chain_calls_total",
			Help: "Chain reads and writes by operation and result",
		},
		[]string{"op", "result"},
	)

	RewardAmount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "whitelister_reward_amount",
			Help: "Computed reward of the last run per category, in whole tokens (lossy)",
		},
		[]string{"category"},
	)

	ConfirmationWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "whitelister_confirmation_wait_seconds",
			Help:    "Time spent waiting for transaction confirmation",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"op"},
	)

	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whitelister_runs_total",
			Help: "Distribution runs by outcome",
		},
		[]string{"outcome"},
	)
)

// ObserveChainCall counts one chain call as ok or error
func ObserveChainCall(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ChainCalls.WithLabelValues(op, result).Inc()
}
