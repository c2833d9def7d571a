package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the pipeline counters.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
)

var (
	translationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_translations_total",
			Help: "Total number of natural-language to SQL translations by outcome.",
		},
		[]string{"outcome"},
	)
	executionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_executions_total",
			Help: "Total number of generated SQL executions by outcome.",
		},
		[]string{"outcome"},
	)
	explanationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_explanations_total",
			Help: "Total number of SQL explanations by outcome.",
		},
		[]string{"outcome"},
	)
	llmLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askdb_llm_latency_ms",
			Help:    "Latency of text-generation calls in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000},
		},
		[]string{"operation"},
	)
	queryRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdb_query_rows",
			Help:    "Number of rows returned by executed queries.",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 10000},
		},
	)
	seededRowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askdb_seeded_rows_total",
			Help: "Total number of seed rows inserted into the employee store.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		translationsTotal,
		executionsTotal,
		explanationsTotal,
		llmLatencyMs,
		queryRows,
		seededRowsTotal,
	)
}

func ObserveTranslation(outcome string, elapsed time.Duration) {
	translationsTotal.WithLabelValues(outcome).Inc()
	llmLatencyMs.WithLabelValues("translate").Observe(float64(elapsed.Milliseconds()))
}

func ObserveExplanation(outcome string, elapsed time.Duration) {
	explanationsTotal.WithLabelValues(outcome).Inc()
	llmLatencyMs.WithLabelValues("explain").Observe(float64(elapsed.Milliseconds()))
}

func ObserveExecution(outcome string, rows int) {
	executionsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK {
		queryRows.Observe(float64(rows))
	}
}

func AddSeededRows(n int) {
	if n > 0 {
		seededRowsTotal.Add(float64(n))
	}
}
