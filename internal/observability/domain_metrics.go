package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	assistantTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "impactdesk_assistant_turns_total",
			Help: "Total number of completed assistant chat turns.",
		},
		[]string{"has_data"},
	)
	assistantQueryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "impactdesk_assistant_query_attempts_total",
			Help: "Total number of generated-query execution attempts.",
		},
		[]string{"outcome"},
	)
	assistantRepairsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "impactdesk_assistant_repairs_total",
			Help: "Total number of repair round-trips issued after a failed query attempt.",
		},
	)
	assistantModelLatencySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "impactdesk_assistant_model_latency_seconds",
			Help:    "Latency of individual model completion calls.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)
	assistantQueryRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "impactdesk_assistant_query_rows",
			Help:    "Rows returned by successful generated-query executions.",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500},
		},
	)
)

func init() {
	prometheus.MustRegister(
		assistantTurnsTotal,
		assistantQueryAttemptsTotal,
		assistantRepairsTotal,
		assistantModelLatencySeconds,
		assistantQueryRows,
	)
}

func IncrementAssistantTurn(hasData bool) {
	label := "false"
	if hasData {
		label = "true"
	}
	assistantTurnsTotal.WithLabelValues(label).Inc()
}

func IncrementAssistantQueryAttempt(success bool) {
	outcome := "failed"
	if success {
		outcome = "succeeded"
	}
	assistantQueryAttemptsTotal.WithLabelValues(outcome).Inc()
}

func IncrementAssistantRepair() {
	assistantRepairsTotal.Inc()
}

func ObserveAssistantModelLatency(duration time.Duration) {
	assistantModelLatencySeconds.Observe(duration.Seconds())
}

func ObserveAssistantQueryRows(count int) {
	assistantQueryRows.Observe(float64(count))
}
