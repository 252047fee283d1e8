package models

// ColumnType is the semantic type of a table column. It is decided once
// when the column is first observed and never changes afterwards.
type ColumnType string

const (
	ColumnInteger   ColumnType = "integer"
	ColumnFloat     ColumnType = "float"
	ColumnText      ColumnType = "text"
	ColumnTimestamp ColumnType = "timestamp"
	ColumnBoolean   ColumnType = "boolean"
)

// IsNumeric reports whether the column can serve as a sum/average measure.
func (t ColumnType) IsNumeric() bool {
	return t == ColumnInteger || t == ColumnFloat
}

// Valid reports whether t is one of the known column types.
func (t ColumnType) Valid() bool {
	switch t {
	case ColumnInteger, ColumnFloat, ColumnText, ColumnTimestamp, ColumnBoolean:
		return true
	}
	return false
}
