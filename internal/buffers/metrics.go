package buffers

import (
	"weblog-analytics/internal/shared/metrics"
)

var (
	metricBatchesFlushedTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubBuffer,
			Name:      "batches_flushed_total",
		},
		[]string{metrics.FieldService},
	)

	metricFlushFailuresTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubBuffer,
			Name:      "flush_failures_total",
		},
		[]string{metrics.FieldService},
	)

	metricBufferedRecords = metrics.NewGaugeVec(
		metrics.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubBuffer,
			Name:      "buffered_records",
		},
		[]string{metrics.FieldService},
	)
)
