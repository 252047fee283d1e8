package syslog

import (
	"weblog-analytics/internal/shared/metrics"
)

var metricFramesReceivedTotal = metrics.NewCounterVec(
	metrics.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: metrics.SubSyslog,
		Name:      "frames_received_total",
	},
	[]string{metrics.FieldErrorCode},
)
