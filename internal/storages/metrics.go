package storages

import (
	"weblog-analytics/internal/shared/metrics"
)

var (
	metricRowsInsertedTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubStorage,
			Name:      "rows_inserted_total",
		},
		[]string{metrics.FieldService},
	)

	metricFieldsNulledTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubStorage,
			Name:      "fields_nulled_total",
		},
		[]string{metrics.FieldService},
	)

	metricDDLStatementsTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubStorage,
			Name:      "ddl_statements_total",
		},
		[]string{metrics.FieldService},
	)
)
