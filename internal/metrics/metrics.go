package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestCount counts HTTP requests by method, route and status
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// ScanCount counts plagiarism scans by outcome
	ScanCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plagiarism_scans_total",
			Help: "Total number of plagiarism scans",
		},
		[]string{"status"},
	)

	// ScanDuration measures whole-scan duration
	ScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "plagiarism_scan_duration_seconds",
			Help: "Plagiarism scan duration in seconds",
		},
	)

	// PairsCompared counts scored submission pairs
	PairsCompared = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plagiarism_pairs_compared_total",
			Help: "Total number of submission pairs scored",
		},
	)

	// ReportsFlagged counts newly created plagiarism reports
	ReportsFlagged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plagiarism_reports_flagged_total",
			Help: "Total number of plagiarism reports created",
		},
	)

	// SubmissionsProcessed counts processed submissions by intake source
	SubmissionsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_processed_total",
			Help: "Total number of submissions processed",
		},
		[]string{"source"},
	)

	// AnalysisFallbacks counts remote analysis failures served by heuristics
	AnalysisFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "analysis_heuristic_fallbacks_total",
			Help: "Total number of remote analysis calls that fell back to heuristic rules",
		},
	)

	// StreamMessages counts consumed stream entries by outcome
	// (processed, malformed, failed)
	StreamMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_messages_total",
			Help: "Total number of stream entries consumed, by outcome",
		},
		[]string{"outcome"},
	)

	// StreamDeadLetters counts messages moved to the dead-letter key
	StreamDeadLetters = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_dead_letters_total",
			Help: "Total number of stream messages sent to the dead-letter key",
		},
	)
)

// InitPrometheus registers all collectors
func InitPrometheus() {
	prometheus.MustRegister(RequestCount)
	prometheus.MustRegister(ScanCount)
	prometheus.MustRegister(ScanDuration)
	prometheus.MustRegister(PairsCompared)
	prometheus.MustRegister(ReportsFlagged)
	prometheus.MustRegister(SubmissionsProcessed)
	prometheus.MustRegister(AnalysisFallbacks)
	prometheus.MustRegister(StreamMessages)
	prometheus.MustRegister(StreamDeadLetters)
}
