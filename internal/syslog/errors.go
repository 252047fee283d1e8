package syslog

import (
	"fmt"

	"weblog-analytics/internal/shared/svcerrors"
)

// Listener errors
const (
	codeMalformedFrame   = "SLG_1000"
	codeMalformedPayload = "SLG_1001"
	codeMissingService   = "SLG_1002"

	codeInternalListenFailed = "SLG_9000"
)

// errListenFailed returns an error when the UDP socket cannot be bound.
func errListenFailed(addr string, cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalListenFailed, fmt.Errorf("listenFailed on %s: %w", addr, cause))
}
