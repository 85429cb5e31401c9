package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	httpErrorsTotal        *prometheus.CounterVec
	submissionsJudgedTotal *prometheus.CounterVec
	helpAnalysesTotal      *prometheus.CounterVec
	helpAnalysisSeconds    prometheus.Histogram
	practiceGeneratedTotal prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coach",
			Name:      "http_requests_total",
			Help:      "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "coach",
			Name:      "http_latency_seconds",
			Help:      "Latency distribution for API requests.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coach",
			Name:      "http_errors_total",
			Help:      "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		submissionsJudgedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coach",
			Name:      "submissions_judged_total",
			Help:      "Number of submissions judged, labelled by verdict.",
		}, []string{"verdict"})

		helpAnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coach",
			Name:      "help_analyses_total",
			Help:      "Number of background help analyses, labelled by outcome.",
		}, []string{"status"})

		helpAnalysisSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "coach",
			Name:      "help_analysis_duration_seconds",
			Help:      "Duration of background help analyses.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		})

		practiceGeneratedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coach",
			Name:      "practice_generated_total",
			Help:      "Number of practice sets generated.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			submissionsJudgedTotal,
			helpAnalysesTotal,
			helpAnalysisSeconds,
			practiceGeneratedTotal,
		)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// Errors exposes the counter for API error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// SubmissionsJudged exposes the per-verdict judge counter.
func SubmissionsJudged() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsJudgedTotal
}

// HelpAnalyses exposes the per-outcome analysis counter.
func HelpAnalyses() *prometheus.CounterVec {
	RegisterMetrics()
	return helpAnalysesTotal
}

// HelpAnalysisDuration exposes the analysis duration histogram.
func HelpAnalysisDuration() prometheus.Histogram {
	RegisterMetrics()
	return helpAnalysisSeconds
}

// PracticeGenerated exposes the practice generation counter.
func PracticeGenerated() prometheus.Counter {
	RegisterMetrics()
	return practiceGeneratedTotal
}
