package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "soil_balance"

var (
	// SamplesRejected counts readings discarded by range validation,
	// labelled by sample kind.
	SamplesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_rejected_total",
			Help:      "Sensor readings rejected as physically implausible.",
		},
		[]string{"kind"},
	)

	// AnomalousDeltas counts discarded precipitation counter jumps.
	AnomalousDeltas = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "precip_anomalous_deltas_total",
			Help:      "Cumulative precipitation jumps discarded as sensor faults.",
		},
	)

	// ZoneBalance tracks the current balance per zone in mm.
	ZoneBalance = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "zone_balance_mm",
			Help:      "Current soil-moisture balance per zone (0 = optimal).",
		},
		[]string{"zone"},
	)

	// FluxApplied sums the water deltas applied to the ledger, labelled by
	// cause (rain, irrigation, et).
	FluxApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flux_applied_mm_total",
			Help:      "Absolute millimeters of water flux applied per cause.",
		},
		[]string{"zone", "cause"},
	)

	// ETComputed counts daily ET computations, labelled by method.
	ETComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "et_computed_total",
			Help:      "Reference ET computations by method.",
		},
		[]string{"method"},
	)

	// ETSkipped counts zone-days skipped for insufficient data.
	ETSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "et_skipped_total",
			Help:      "Daily ET applications skipped for insufficient weather data.",
		},
	)

	// HistoryQuerySeconds observes historical window query latency.
	HistoryQuerySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "history_query_seconds",
			Help:      "Latency of trailing-window queries against the history store.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// IncompleteRuns counts irrigation runs discarded without a closing edge.
	IncompleteRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incomplete_runs_total",
			Help:      "Irrigation runs discarded because no valve-off was observed.",
		},
	)
)
