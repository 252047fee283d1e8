package queries

import (
	"fmt"
	"time"

	"weblog-analytics/internal/shared/svcerrors"
)

// QueryService errors
const (
	codeInvalidRange       = "QRY_1000"
	codeInvalidGranularity = "QRY_1001"
	codeUnknownDimension   = "QRY_1002"
	codeInvalidFilter      = "QRY_1003"
	codeInvalidMeasure     = "QRY_1004"
	codeUnknownService     = "QRY_1005"
	codeDistinctFoldOther  = "QRY_1006"

	codeInternalAggregateFailed    = "QRY_9000"
	codeInternalSchemaLookupFailed = "QRY_9001"
	codeInternalListServicesFailed = "QRY_9002"
)

// errInvalidRange returns an error when the query range start is after its end.
func errInvalidRange(from, to time.Time) *svcerrors.ServiceError {
	return svcerrors.NewInvalidArgumentError(codeInvalidRange,
		fmt.Sprintf("invalid time range: from %s is after to %s", from.Format(time.RFC3339), to.Format(time.RFC3339)), nil)
}

// errInvalidGranularity returns an error for a bucket width outside minute/hour/day.
func errInvalidGranularity(granularity string) *svcerrors.ServiceError {
	return svcerrors.NewInvalidArgumentError(codeInvalidGranularity,
		fmt.Sprintf("invalid granularity: %q", granularity), nil)
}

// errUnknownDimension returns an error when a group-by, measure or filter column
// does not exist in the service schema.
func errUnknownDimension(column string) *svcerrors.ServiceError {
	return svcerrors.NewInvalidArgumentError(codeUnknownDimension,
		fmt.Sprintf("unknown column: %q", column), nil)
}

// errInvalidFilter returns an error when a filter value cannot be converted to
// its column type.
func errInvalidFilter(column, value string) *svcerrors.ServiceError {
	return svcerrors.NewInvalidArgumentError(codeInvalidFilter,
		fmt.Sprintf("filter value %q does not match the type of column %q", value, column), nil)
}

// errInvalidMeasure returns an error when the measure column is not numeric.
func errInvalidMeasure(column string) *svcerrors.ServiceError {
	return svcerrors.NewInvalidArgumentError(codeInvalidMeasure,
		fmt.Sprintf("measure column %q is not numeric", column), nil)
}

// errDistinctWithFoldOther returns an error when a distinct count is combined
// with remainder folding; distinct counts cannot be summed across groups.
func errDistinctWithFoldOther(column string) *svcerrors.ServiceError {
	return svcerrors.NewInvalidArgumentError(codeDistinctFoldOther,
		fmt.Sprintf("distinct count of %q cannot be combined with fold_other", column), nil)
}

// errUnknownService returns an error when no table exists for the service.
func errUnknownService(service string) *svcerrors.ServiceError {
	return svcerrors.NewNotFoundError(codeUnknownService,
		fmt.Sprintf("unknown service: %q", service), nil)
}

// errInternalAggregateFailed returns an error when the aggregate statement fails.
func errInternalAggregateFailed(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalAggregateFailed, fmt.Errorf("aggregateFailed: %w", cause))
}

// errInternalSchemaLookupFailed returns an error when reading the persisted schema fails.
func errInternalSchemaLookupFailed(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalSchemaLookupFailed, fmt.Errorf("schemaLookupFailed: %w", cause))
}

// errInternalListServicesFailed returns an error when listing service tables fails.
func errInternalListServicesFailed(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalListServicesFailed, fmt.Errorf("listServicesFailed: %w", cause))
}
