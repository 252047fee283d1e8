package models

import "time"

// QuerySpec describes one dashboard request: a time-bucketed count over
// [From, To) for a service, optionally grouped by a dimension column and
// optionally carrying a numeric measure for sum/average.
type QuerySpec struct {
	Service     string
	From        time.Time // inclusive
	To          time.Time // exclusive
	Granularity Granularity

	// GroupBy is an optional dimension column; empty means a plain series.
	GroupBy string
	// Filters are optional equality constraints, column name to value.
	Filters map[string]string
	// Measure is an optional numeric column to sum/average per bucket.
	Measure string
	// Distinct is an optional column; when set, Count holds the number
	// of distinct values of that column per bucket instead of the row
	// count. Typical use is counting unique visitor IPs.
	Distinct string
	// Limit caps the number of groups per bucket (top-N); 0 uses the
	// configured default. Ignored without GroupBy.
	Limit int
	// FoldOther folds groups beyond the top-N into a single "other" row.
	FoldOther bool
}

// OtherGroup is the synthetic group key holding the folded remainder of
// a top-N query.
const OtherGroup = "other"

// BucketRow is one result tuple of an aggregate query.
type BucketRow struct {
	BucketTime time.Time `json:"bucketTime"`
	GroupKey   *string   `json:"groupKey,omitempty"`
	Count      int64     `json:"count"`
	Sum        *float64  `json:"sum,omitempty"`
	Avg        *float64  `json:"avg,omitempty"`
}

// QueryResult is the ordered, bucket-dense answer to a QuerySpec.
type QueryResult struct {
	Service     string      `json:"service"`
	Granularity Granularity `json:"granularity"`
	Rows        []BucketRow `json:"rows"`
}
