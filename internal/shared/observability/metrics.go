package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pyamend_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pyamend_analysis_seconds",
		Help:    "Time spent on high-level analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	FilesAnalyzedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyamend_files_analyzed_total",
		Help: "Total number of files analyzed.",
	})

	FilesSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyamend_files_skipped_total",
		Help: "Total number of files skipped, by reason.",
	}, []string{"reason"})

	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyamend_diagnostics_total",
		Help: "Total number of diagnostics produced, by rule.",
	}, []string{"rule"})

	FixesAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyamend_fixes_applied_total",
		Help: "Total number of automatic edits applied to files.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyamend_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
