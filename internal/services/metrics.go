package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "twdash",
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Pipeline runs by outcome.",
	}, []string{"status"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "twdash",
		Subsystem: "pipeline",
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of a full pipeline run.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 8),
	})

	recordsByGroup = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "twdash",
		Subsystem: "pipeline",
		Name:      "records",
		Help:      "Record count per classification group in the latest run.",
	}, []string{"group"})

	flowLookbackDays = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "twdash",
		Subsystem: "pipeline",
		Name:      "flow_lookback_days",
		Help:      "How many days back the latest run had to walk for usable flow data; -1 when the walk was exhausted.",
	})
)
