package http

import (
	"fmt"

	"weblog-analytics/internal/shared/svcerrors"
)

// Handler errors
const (
	codeMalformedBody = "HTTP_1000"
	codeInvalidParam  = "HTTP_1001"
)

// errMalformedBody returns an error when the request body is not a JSON
// object or array of objects.
func errMalformedBody(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInvalidArgumentError(codeMalformedBody, "request body must be a JSON object or an array of objects", cause)
}

// errInvalidParam returns an error for an unparsable query string parameter.
func errInvalidParam(name, value string) *svcerrors.ServiceError {
	return svcerrors.NewInvalidArgumentError(codeInvalidParam,
		fmt.Sprintf("invalid query parameter %s: %q", name, value), nil)
}
