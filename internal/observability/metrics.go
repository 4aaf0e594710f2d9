package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline collectors. HTTP collectors live in the middleware package.
var (
	papersInserted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "paperdigest_papers_inserted_total",
			Help: "Papers newly inserted by sync runs.",
		},
	)

	summaries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paperdigest_summaries_total",
			Help: "Summary generation outcomes.",
		},
		[]string{"result"}, // ok | failed
	)

	llmRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paperdigest_llm_requests_total",
			Help: "Model API requests by outcome kind.",
		},
		[]string{"kind"}, // ok | rate_limit | timeout | api | invalid_response
	)

	syncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "paperdigest_sync_duration_seconds",
			Help:    "Wall time of sync runs.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
	)

	syncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paperdigest_sync_runs_total",
			Help: "Sync runs by result.",
		},
		[]string{"result"}, // ok | error | skipped
	)
)

func init() {
	prometheus.MustRegister(papersInserted, summaries, llmRequests, syncDuration, syncRuns)
}

// AddPapersInserted records n newly stored papers.
func AddPapersInserted(n int) {
	if n > 0 {
		papersInserted.Add(float64(n))
	}
}

// ObserveSummary records one paper's summarization outcome.
func ObserveSummary(ok bool) {
	if ok {
		summaries.WithLabelValues("ok").Inc()
		return
	}
	summaries.WithLabelValues("failed").Inc()
}

// ObserveLLMRequest records one model API request; kind is "ok" on success.
func ObserveLLMRequest(kind string) {
	llmRequests.WithLabelValues(kind).Inc()
}

// ObserveSync records a finished sync run.
func ObserveSync(result string, took time.Duration) {
	syncRuns.WithLabelValues(result).Inc()
	if result != "skipped" {
		syncDuration.Observe(took.Seconds())
	}
}
