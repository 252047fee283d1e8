package storages

import (
	"context"

	"weblog-analytics/internal/models"
)

// Plan is a compiled aggregate query: the time-bucket width, the half-open
// time range, optional group-by dimension, optional numeric measure and
// pre-coerced equality filters. Built by the query layer, executed here.
type Plan struct {
	Service       string
	BucketSeconds int64
	From          int64 // Unix seconds, inclusive
	To            int64 // Unix seconds, exclusive
	GroupBy       string
	Filters       map[string]any
	Measure       string
	// Distinct switches the count to COUNT(DISTINCT column); empty counts rows.
	Distinct string
	// Limit keeps the N highest-count groups per bucket; 0 means all.
	Limit int
}

// AggregateRow is one tuple returned by an aggregate query. Group is nil
// for plain time series; Sum and Avg are set only when a measure was
// requested.
type AggregateRow struct {
	Bucket int64
	Group  *string
	Count  int64
	Sum    *float64
	Avg    *float64
}

// Gateway adapts table lifecycle, bulk commits and aggregate queries onto
// the embedded storage engine. It holds no buffered state of its own;
// implementations must be safe for one concurrent writer with concurrent
// readers.
//
//go:generate mockgen -source=gateway.go -destination=./mocks/gateway_mock.go -package=mocks
type Gateway interface {
	// EnsureTable creates the service table if absent and adds any schema
	// columns missing from it. Additive only: existing columns are never
	// dropped or retyped.
	EnsureTable(ctx context.Context, schema *models.Schema) error

	// TableColumns reads the persisted schema of a service table. The
	// second result is false when no such table exists.
	TableColumns(ctx context.Context, service string) (*models.Schema, bool, error)

	// BulkInsert commits all records in one transaction. Fields that
	// cannot be coerced to their column type become null; the row is kept.
	// Returns the number of rows committed.
	BulkInsert(ctx context.Context, schema *models.Schema, records []models.Record) (int, error)

	// Aggregate executes a compiled query plan and returns its tuples
	// ordered by bucket time, then count descending, then group key.
	Aggregate(ctx context.Context, plan *Plan) ([]AggregateRow, error)

	// ListServices returns the names of all persisted service tables.
	ListServices(ctx context.Context) ([]string, error)

	Close() error
}
