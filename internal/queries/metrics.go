package queries

import (
	"weblog-analytics/internal/shared/metrics"
)

var (
	metricQueriesExecutedTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubQuery,
			Name:      "queries_executed_total",
		},
		[]string{metrics.FieldErrorCode},
	)

	metricQueryDuration = metrics.NewHistogramVec(
		metrics.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubQuery,
			Name:      "query_duration_seconds",
			Buckets:   metrics.DefBuckets,
		},
		[]string{metrics.FieldErrorCode},
	)
)
