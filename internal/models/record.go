package models

import "time"

// Record is one decoded, enriched event: column name to scalar value.
// Values are one of int64, float64, string, bool, time.Time or nil
// (absence, stored as SQL NULL).
type Record map[string]any

// Datetime returns the record's ingestion timestamp, or the zero time
// if the implicit column is missing or of an unexpected shape.
func (r Record) Datetime() time.Time {
	if t, ok := r[ColumnDatetime].(time.Time); ok {
		return t
	}
	return time.Time{}
}
