package schemas

import (
	"context"
	"regexp"
	"sort"
	"sync"

	"weblog-analytics/internal/models"
	"weblog-analytics/internal/shared/loggers"
)

// columnName is the shape a record field must have to become a column.
// Fields with other names are dropped from the record, never stored.
var columnName = regexp.MustCompile(`^[A-Za-z_]\w*$`)

// TableStore is the slice of the storage gateway the registry needs:
// schema changes and the matching DDL happen as one step under the
// per-service lock.
type TableStore interface {
	EnsureTable(ctx context.Context, schema *models.Schema) error
	TableColumns(ctx context.Context, service string) (*models.Schema, bool, error)
}

// Registry is the process-wide mapping from service name to its current
// schema snapshot. Schemas are created lazily on the first record and only
// ever grow: columns are added, never removed or retyped.
type Registry struct {
	tables TableStore
	hints  map[string]models.ColumnType
	logger loggers.Logger

	mu       sync.RWMutex
	services map[string]*serviceEntry
}

type serviceEntry struct {
	// mu serializes reconciliation and the corresponding DDL per service.
	mu     sync.Mutex
	schema *models.Schema
}

// NewRegistry builds a registry backed by the given table store. Hints
// fix the column type for known field names; hinted columns skip
// value-based inference so the first value seen cannot narrow the type.
func NewRegistry(tables TableStore, hints map[string]models.ColumnType, logger loggers.Logger) *Registry {
	return &Registry{
		tables:   tables,
		hints:    hints,
		logger:   logger,
		services: make(map[string]*serviceEntry),
	}
}

// Schema returns the current snapshot for a service, if the registry has
// seen it during this process lifetime.
func (r *Registry) Schema(service string) (*models.Schema, bool) {
	r.mu.RLock()
	entry, ok := r.services[service]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.schema == nil {
		return nil, false
	}
	return entry.schema, true
}

// Reconcile folds a record's fields into the service schema, inferring a
// type for each unseen field and issuing the additive DDL for new columns.
// It returns the schema snapshot the record should be committed under.
// Reconciliation is serialized per service; different services proceed
// concurrently.
func (r *Registry) Reconcile(ctx context.Context, service string, record models.Record) (*models.Schema, error) {
	entry := r.entry(service)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.schema == nil {
		// A table may survive from a previous run; pick its schema up so
		// established column types stay fixed across restarts.
		stored, ok, err := r.tables.TableColumns(ctx, service)
		if err != nil {
			return nil, errSchemaLookupFailed(err)
		}
		if ok {
			entry.schema = stored
		} else {
			entry.schema = models.NewSchema(service, nil)
		}
	}

	added := r.unseenColumns(entry.schema, record)
	if len(added) == 0 {
		return entry.schema, nil
	}

	next := entry.schema.Extend(added)
	if err := r.tables.EnsureTable(ctx, next); err != nil {
		// DDL failed: the snapshot is not published, the next record
		// retries reconciliation from the previous schema.
		return nil, errSchemaDDLFailed(err)
	}
	entry.schema = next

	metricColumnsAddedTotal.WithLabelValues(service).Add(float64(len(added)))
	r.logger.Debug().
		Str(loggers.FieldService, service).
		Int("columns", len(next.Columns)).
		Msgf("schema extended with %d columns", len(added))

	return entry.schema, nil
}

func (r *Registry) entry(service string) *serviceEntry {
	r.mu.RLock()
	entry, ok := r.services[service]
	r.mu.RUnlock()
	if ok {
		return entry
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok = r.services[service]; ok {
		return entry
	}
	entry = &serviceEntry{}
	r.services[service] = entry
	return entry
}

// unseenColumns infers types for record fields the schema lacks. New
// columns are appended in name order so reconciliation is deterministic
// regardless of map iteration.
func (r *Registry) unseenColumns(schema *models.Schema, record models.Record) []models.Column {
	var names []string
	for name := range record {
		if schema.HasColumn(name) {
			continue
		}
		if !columnName.MatchString(name) {
			r.logger.Debug().
				Str(loggers.FieldService, schema.Service).
				Str(loggers.FieldFieldName, name).
				Msg("dropping field with invalid column name")
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	columns := make([]models.Column, 0, len(names))
	for _, name := range names {
		columnType, ok := r.hints[name]
		if !ok {
			columnType = InferColumnType(record[name])
		}
		columns = append(columns, models.Column{Name: name, Type: columnType})
	}
	return columns
}
