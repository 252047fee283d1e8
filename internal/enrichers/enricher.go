package enrichers

import (
	"net/netip"
	"net/url"
	"strconv"
	"time"

	"weblog-analytics/internal/models"

	"github.com/mileusna/useragent"
)

// Well-known nginx record fields and the columns derived from them.
const (
	FieldIP        = "ip"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLength    = "length"
	FieldGenTime   = "generation_time_milli"
	FieldUserAgent = "user_agent"

	ColumnCountry         = "country_iso_code"
	ColumnBrowserName     = "browser_name"
	ColumnBrowserVersion  = "browser_version"
	ColumnPlatformName    = "platform_name"
	ColumnPlatformVersion = "platform_version"
	ColumnIsRobot         = "is_robot"
)

// ColumnHints declares the column types the well-known fields must land
// on, regardless of the shape of the first value seen. Sub-millisecond
// latencies arrive as integral numbers often enough that first-sight
// inference would otherwise pin generation_time_milli as an integer.
func ColumnHints() map[string]models.ColumnType {
	return map[string]models.ColumnType{
		models.ColumnDatetime: models.ColumnTimestamp,
		FieldStatus:           models.ColumnInteger,
		FieldLength:           models.ColumnInteger,
		FieldGenTime:          models.ColumnFloat,
		ColumnIsRobot:         models.ColumnBoolean,
	}
}

// Enricher turns a decoded event into a Record ready for buffering:
// it stamps the ingestion timestamp, normalizes well-known nginx fields
// and derives the country and browser/platform columns.
type Enricher struct {
	Geo GeoResolver
	// Now supplies the ingestion timestamp; replaced in tests.
	Now func() time.Time
}

func NewEnricher(geo GeoResolver) *Enricher {
	return &Enricher{Geo: geo, Now: time.Now}
}

func (e *Enricher) Enrich(fields map[string]any) models.Record {
	record := make(models.Record, len(fields)+7)
	for name, value := range fields {
		record[name] = value
	}

	// The ingestion timestamp is set here, not taken from the event.
	record[models.ColumnDatetime] = e.Now().UTC()

	e.normalizeKnownFields(record)
	e.deriveCountry(record)
	e.deriveUserAgent(record)

	return record
}

// normalizeKnownFields pins the shape of fields nginx formats sometimes
// emit as strings, so first-sight inference lands on the right type.
func (e *Enricher) normalizeKnownFields(record models.Record) {
	if path, ok := record[FieldPath].(string); ok {
		if unescaped, err := url.PathUnescape(path); err == nil {
			record[FieldPath] = unescaped
		}
	}
	if status, ok := asInt64(record[FieldStatus]); ok {
		record[FieldStatus] = status
	}
	if length, ok := asInt64(record[FieldLength]); ok {
		record[FieldLength] = length
	}
	if genTime, ok := asFloat64(record[FieldGenTime]); ok {
		record[FieldGenTime] = genTime
	}
}

func (e *Enricher) deriveCountry(record models.Record) {
	raw, ok := record[FieldIP].(string)
	if !ok || raw == "" {
		return
	}
	ip, err := netip.ParseAddr(raw)
	if err != nil {
		return
	}
	if code, ok := e.Geo.Country(ip); ok {
		record[ColumnCountry] = code
	}
}

func (e *Enricher) deriveUserAgent(record models.Record) {
	raw, ok := record[FieldUserAgent].(string)
	if !ok || raw == "" {
		return
	}

	parsed := useragent.Parse(raw)
	if parsed.Name != "" {
		record[ColumnBrowserName] = parsed.Name
	}
	if parsed.Version != "" {
		record[ColumnBrowserVersion] = parsed.Version
	}
	if parsed.OS != "" {
		record[ColumnPlatformName] = parsed.OS
	}
	if parsed.OSVersion != "" {
		record[ColumnPlatformVersion] = parsed.OSVersion
	}
	record[ColumnIsRobot] = parsed.Bot
}

func asInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func asFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
