package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leakguard_scans_total",
			Help: "Total leakage scans by overall risk level",
		},
		[]string{"tenant", "risk_level"},
	)

	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leakguard_scan_duration_seconds",
			Help:    "Leakage scan latency distribution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tenant"},
	)

	EntitiesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leakguard_entities_detected_total",
			Help: "Detected entities by detection method",
		},
		[]string{"tenant", "method"},
	)

	ExportDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leakguard_export_decisions_total",
			Help: "Export guard decisions by outcome",
		},
		[]string{"tenant", "outcome"},
	)
)

// ExportOutcome labels for the ExportDecisions counter.
const (
	OutcomeAllowed = "allowed"
	OutcomeMasked  = "masked"
	OutcomeBlocked = "blocked"
	OutcomeError   = "error_blocked"
)
