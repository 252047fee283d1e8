package ingestors

import (
	"weblog-analytics/internal/shared/metrics"
)

var (
	metricRecordsIngestedTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubIngestion,
			Name:      "records_ingested_total",
		},
		[]string{metrics.FieldErrorCode},
	)

	metricRecordsDroppedTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubIngestion,
			Name:      "records_dropped_total",
		},
		[]string{metrics.FieldService},
	)
)
