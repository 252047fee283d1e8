package ingestors

import (
	"fmt"

	"weblog-analytics/internal/shared/svcerrors"
)

// IngestionService errors
const (
	codeInvalidService = "ING_1000"
	codeEmptyRecord    = "ING_1001"
)

// errInvalidService returns an error when the service name is not a valid table name.
func errInvalidService(service string) *svcerrors.ServiceError {
	return svcerrors.NewInvalidArgumentError(codeInvalidService,
		fmt.Sprintf("invalid service name: %q", service), nil)
}

// errEmptyRecord returns an error when the record carries no fields at all.
func errEmptyRecord() *svcerrors.ServiceError {
	return svcerrors.NewInvalidArgumentError(codeEmptyRecord, "record has no fields", nil)
}
