package schemas

import (
	"fmt"

	"weblog-analytics/internal/shared/svcerrors"
)

// Registry errors
const (
	codeInternalSchemaLookupFailed = "SCH_9000"
	codeInternalSchemaDDLFailed    = "SCH_9001"
)

// errSchemaLookupFailed returns an error when reading a persisted table schema fails.
func errSchemaLookupFailed(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalSchemaLookupFailed, fmt.Errorf("schemaLookupFailed: %w", cause))
}

// errSchemaDDLFailed returns an error when the additive DDL for new columns fails.
func errSchemaDDLFailed(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalSchemaDDLFailed, fmt.Errorf("schemaDDLFailed: %w", cause))
}
