package models

import (
	"fmt"
	"time"
)

// Granularity is the fixed bucket width of a time-series query.
type Granularity string

const (
	GranularityMinute Granularity = "minute"
	GranularityHour   Granularity = "hour"
	GranularityDay    Granularity = "day"
)

// ParseGranularity converts a request string into a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case GranularityMinute, GranularityHour, GranularityDay:
		return Granularity(s), nil
	}
	return "", fmt.Errorf("invalid granularity: %q", s)
}

func (g Granularity) Duration() time.Duration {
	switch g {
	case GranularityMinute:
		return time.Minute
	case GranularityHour:
		return time.Hour
	case GranularityDay:
		return 24 * time.Hour
	default:
		panic(fmt.Sprintf("invalid Granularity: %q", g))
	}
}

// Truncate floors t (in UTC) to the start of its bucket.
func (g Granularity) Truncate(t time.Time) time.Time {
	return t.UTC().Truncate(g.Duration())
}

// Seconds is the bucket width as whole seconds, used by the SQL
// bucketing expression.
func (g Granularity) Seconds() int64 {
	return int64(g.Duration() / time.Second)
}
