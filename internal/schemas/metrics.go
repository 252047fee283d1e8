package schemas

import (
	"weblog-analytics/internal/shared/metrics"
)

var (
	metricColumnsAddedTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubSchema,
			Name:      "columns_added_total",
		},
		[]string{metrics.FieldService},
	)
)
