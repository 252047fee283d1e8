package schemas

import (
	"math"
	"strconv"
	"time"

	"weblog-analytics/internal/models"
)

// timestampLayouts are the ISO-8601 shapes recognized by inference and
// coercion. nginx emits the first two; the rest show up in hand-fed data.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// InferColumnType decides a column's semantic type from the first value
// observed for it. The decision is made once; later values of a different
// shape are coerced to the fixed type by Coerce.
func InferColumnType(value any) models.ColumnType {
	switch v := value.(type) {
	case bool:
		return models.ColumnBoolean
	case int:
		return models.ColumnInteger
	case int32:
		return models.ColumnInteger
	case int64:
		return models.ColumnInteger
	case float32:
		return inferFromFloat(float64(v))
	case float64:
		return inferFromFloat(v)
	case time.Time:
		return models.ColumnTimestamp
	case string:
		if _, ok := parseTimestamp(v); ok {
			return models.ColumnTimestamp
		}
		return models.ColumnText
	default:
		// Ambiguous and empty values default to text.
		return models.ColumnText
	}
}

// inferFromFloat distinguishes integral JSON numbers from fractional
// ones. Values outside the int64 range stay floating point.
func inferFromFloat(v float64) models.ColumnType {
	if v == math.Trunc(v) && v >= math.MinInt64 && v < math.MaxInt64 {
		return models.ColumnInteger
	}
	return models.ColumnFloat
}

// Coerce converts value to the canonical Go representation of the column
// type (int64, float64, string, time.Time, bool). The second result is
// false when the value cannot be represented, in which case the field is
// stored as null and the record is otherwise kept.
func Coerce(value any, columnType models.ColumnType) (any, bool) {
	if value == nil {
		return nil, true
	}

	switch columnType {
	case models.ColumnInteger:
		return coerceInteger(value)
	case models.ColumnFloat:
		return coerceFloat(value)
	case models.ColumnText:
		return coerceText(value)
	case models.ColumnTimestamp:
		return coerceTimestamp(value)
	case models.ColumnBoolean:
		return coerceBoolean(value)
	}
	return nil, false
}

func coerceInteger(value any) (any, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float32:
		return coerceInteger(float64(v))
	case float64:
		if v == math.Trunc(v) && v >= math.MinInt64 && v < math.MaxInt64 {
			return int64(v), true
		}
		return nil, false
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, false
		}
		return n, true
	}
	return nil, false
}

func coerceFloat(value any) (any, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	}
	return nil, false
}

func coerceText(value any) (any, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.FormatInt(int64(v), 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case time.Time:
		return v.UTC().Format(time.RFC3339), true
	}
	return nil, false
}

func coerceTimestamp(value any) (any, bool) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), true
	case string:
		return parseTimestamp(v)
	case int64:
		return time.Unix(v, 0).UTC(), true
	case float64:
		// Integral JSON numbers in a timestamp column are Unix seconds.
		if v == math.Trunc(v) && v >= math.MinInt64 && v < math.MaxInt64 {
			return time.Unix(int64(v), 0).UTC(), true
		}
		return nil, false
	}
	return nil, false
}

func coerceBoolean(value any) (any, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, false
		}
		return b, true
	}
	return nil, false
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
