package models

// ColumnDatetime is the implicit ingestion-timestamp column present in
// every table. It is set at enrichment time and used for time bucketing.
const ColumnDatetime = "datetime"

// Column is a single typed column of a service schema.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Schema is the ordered set of typed columns known for one service.
// A Schema value is an immutable snapshot: reconciliation returns a new
// Schema with columns appended, it never mutates an existing one.
type Schema struct {
	Service string   `json:"service"`
	Columns []Column `json:"columns"`
}

// NewSchema creates a schema snapshot for the given service.
func NewSchema(service string, columns []Column) *Schema {
	return &Schema{Service: service, Columns: columns}
}

// ColumnType returns the type of the named column, if present.
func (s *Schema) ColumnType(name string) (ColumnType, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c.Type, true
		}
	}
	return "", false
}

// HasColumn reports whether the named column exists in the schema.
func (s *Schema) HasColumn(name string) bool {
	_, ok := s.ColumnType(name)
	return ok
}

// Extend returns a new snapshot with the given columns appended.
// Existing columns are never removed or retyped.
func (s *Schema) Extend(columns []Column) *Schema {
	next := make([]Column, 0, len(s.Columns)+len(columns))
	next = append(next, s.Columns...)
	next = append(next, columns...)
	return &Schema{Service: s.Service, Columns: next}
}
