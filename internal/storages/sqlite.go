package storages

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"weblog-analytics/internal/models"
	"weblog-analytics/internal/schemas"
	"weblog-analytics/internal/shared/loggers"

	_ "modernc.org/sqlite"
)

// identifier limits table and column names to word characters so that
// dynamically inferred schemas can never smuggle SQL into DDL.
var identifier = regexp.MustCompile(`^[A-Za-z_]\w*$`)

var columnSQLTypes = map[models.ColumnType]string{
	models.ColumnInteger:   "INTEGER",
	models.ColumnFloat:     "DOUBLE",
	models.ColumnText:      "TEXT",
	models.ColumnTimestamp: "TIMESTAMP",
	models.ColumnBoolean:   "BOOLEAN",
}

var sqlColumnTypes = map[string]models.ColumnType{
	"INTEGER":   models.ColumnInteger,
	"DOUBLE":    models.ColumnFloat,
	"REAL":      models.ColumnFloat,
	"TEXT":      models.ColumnText,
	"TIMESTAMP": models.ColumnTimestamp,
	"BOOLEAN":   models.ColumnBoolean,
}

// sqliteGateway implements Gateway on an embedded SQLite database.
type sqliteGateway struct {
	db     *sql.DB
	logger loggers.Logger
}

// NewSQLiteGateway opens (or creates) the database at path and applies
// the pragmas for a single-writer, many-reader workload.
func NewSQLiteGateway(path string, logger loggers.Logger) (Gateway, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %q: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	return &sqliteGateway{db: db, logger: logger}, nil
}

func (g *sqliteGateway) EnsureTable(ctx context.Context, schema *models.Schema) error {
	if err := validateIdentifier(schema.Service); err != nil {
		return err
	}
	if len(schema.Columns) == 0 {
		return nil
	}

	existing, ok, err := g.TableColumns(ctx, schema.Service)
	if err != nil {
		return err
	}

	if !ok {
		defs := make([]string, 0, len(schema.Columns))
		for _, c := range schema.Columns {
			if err := validateIdentifier(c.Name); err != nil {
				return err
			}
			defs = append(defs, quote(c.Name)+" "+columnSQLTypes[c.Type])
		}
		stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(schema.Service), strings.Join(defs, ", "))
		g.logger.Debug().Str(loggers.FieldService, schema.Service).Msg(stmt)
		if _, err := g.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table %q: %w", schema.Service, err)
		}
		metricDDLStatementsTotal.WithLabelValues(schema.Service).Inc()
		return nil
	}

	// Additive-only: append columns the table does not have yet.
	for _, c := range schema.Columns {
		if existing.HasColumn(c.Name) {
			continue
		}
		if err := validateIdentifier(c.Name); err != nil {
			return err
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", quote(schema.Service), quote(c.Name), columnSQLTypes[c.Type])
		g.logger.Debug().Str(loggers.FieldService, schema.Service).Msg(stmt)
		if _, err := g.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to add column %q to table %q: %w", c.Name, schema.Service, err)
		}
		metricDDLStatementsTotal.WithLabelValues(schema.Service).Inc()
	}
	return nil
}

func (g *sqliteGateway) TableColumns(ctx context.Context, service string) (*models.Schema, bool, error) {
	if err := validateIdentifier(service); err != nil {
		return nil, false, err
	}

	rows, err := g.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quote(service)))
	if err != nil {
		return nil, false, fmt.Errorf("failed to inspect table %q: %w", service, err)
	}
	defer rows.Close()

	var columns []models.Column
	for rows.Next() {
		var (
			cid      int
			name     string
			declType string
			notNull  int
			dflt     sql.NullString
			pk       int
		)
		if err := rows.Scan(&cid, &name, &declType, &notNull, &dflt, &pk); err != nil {
			return nil, false, fmt.Errorf("failed to scan table info for %q: %w", service, err)
		}
		columnType, ok := sqlColumnTypes[strings.ToUpper(declType)]
		if !ok {
			columnType = models.ColumnText
		}
		columns = append(columns, models.Column{Name: name, Type: columnType})
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to read table info for %q: %w", service, err)
	}

	if len(columns) == 0 {
		return nil, false, nil
	}
	return models.NewSchema(service, columns), true, nil
}

func (g *sqliteGateway) BulkInsert(ctx context.Context, schema *models.Schema, records []models.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if err := validateIdentifier(schema.Service); err != nil {
		return 0, err
	}

	names := make([]string, 0, len(schema.Columns))
	marks := make([]string, 0, len(schema.Columns))
	for _, c := range schema.Columns {
		names = append(names, quote(c.Name))
		marks = append(marks, "?")
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(schema.Service), strings.Join(names, ", "), strings.Join(marks, ", "))

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert for %q: %w", schema.Service, err)
	}
	defer prepared.Close()

	count := 0
	for _, record := range records {
		args := make([]any, 0, len(schema.Columns))
		for _, c := range schema.Columns {
			value, ok := schemas.Coerce(record[c.Name], c.Type)
			if !ok {
				// Field dropped to null, row kept intact.
				metricFieldsNulledTotal.WithLabelValues(schema.Service).Inc()
				value = nil
			}
			args = append(args, bindValue(value))
		}
		if _, err := prepared.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("failed to insert row for %q: %w", schema.Service, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch for %q: %w", schema.Service, err)
	}
	metricRowsInsertedTotal.WithLabelValues(schema.Service).Add(float64(count))
	return count, nil
}

func (g *sqliteGateway) Aggregate(ctx context.Context, plan *Plan) ([]AggregateRow, error) {
	if err := validateIdentifier(plan.Service); err != nil {
		return nil, err
	}

	stmt, args, err := buildAggregateSQL(plan)
	if err != nil {
		return nil, err
	}
	g.logger.Debug().Str(loggers.FieldService, plan.Service).Msg(stmt)

	rows, err := g.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run aggregate query for %q: %w", plan.Service, err)
	}
	defer rows.Close()

	var result []AggregateRow
	for rows.Next() {
		row, err := scanAggregateRow(rows, plan)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read aggregate rows for %q: %w", plan.Service, err)
	}
	return result, nil
}

func (g *sqliteGateway) ListServices(ctx context.Context) ([]string, error) {
	rows, err := g.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var services []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		services = append(services, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table names: %w", err)
	}
	return services, nil
}

func (g *sqliteGateway) Close() error {
	return g.db.Close()
}

// buildAggregateSQL compiles a plan into one SELECT. The bucket expression
// floors the Unix timestamp to the bucket width with integer division.
// Per-bucket top-N uses ROW_NUMBER over (bucket, count desc, group asc) so
// ties break deterministically by group key.
func buildAggregateSQL(plan *Plan) (string, []any, error) {
	selects := []string{
		fmt.Sprintf("(%s / %d) * %d AS bucket_ts", quote(models.ColumnDatetime), plan.BucketSeconds, plan.BucketSeconds),
	}
	groupBys := []string{"bucket_ts"}

	if plan.GroupBy != "" {
		if err := validateIdentifier(plan.GroupBy); err != nil {
			return "", nil, err
		}
		selects = append(selects, quote(plan.GroupBy)+" AS group_key")
		groupBys = append(groupBys, "group_key")
	}
	if plan.Distinct != "" {
		if err := validateIdentifier(plan.Distinct); err != nil {
			return "", nil, err
		}
		selects = append(selects, fmt.Sprintf("COUNT(DISTINCT %s) AS cnt", quote(plan.Distinct)))
	} else {
		selects = append(selects, "COUNT(*) AS cnt")
	}

	if plan.Measure != "" {
		if err := validateIdentifier(plan.Measure); err != nil {
			return "", nil, err
		}
		selects = append(selects,
			fmt.Sprintf("SUM(%s) AS total", quote(plan.Measure)),
			fmt.Sprintf("AVG(%s) AS mean", quote(plan.Measure)))
	}

	wheres := []string{
		quote(models.ColumnDatetime) + " >= ?",
		quote(models.ColumnDatetime) + " < ?",
	}
	args := []any{plan.From, plan.To}
	for _, f := range sortedFilters(plan.Filters) {
		if err := validateIdentifier(f.name); err != nil {
			return "", nil, err
		}
		wheres = append(wheres, quote(f.name)+" = ?")
		args = append(args, bindValue(f.value))
	}

	inner := fmt.Sprintf("SELECT %s FROM %s WHERE %s GROUP BY %s",
		strings.Join(selects, ", "), quote(plan.Service),
		strings.Join(wheres, " AND "), strings.Join(groupBys, ", "))

	if plan.GroupBy == "" {
		return inner + " ORDER BY bucket_ts", args, nil
	}

	outer := "bucket_ts, group_key, cnt"
	if plan.Measure != "" {
		outer += ", total, mean"
	}
	ordering := " ORDER BY bucket_ts, cnt DESC, group_key"

	if plan.Limit <= 0 {
		return fmt.Sprintf("SELECT %s FROM (%s)", outer, inner) + ordering, args, nil
	}

	ranked := fmt.Sprintf(
		"SELECT %s, ROW_NUMBER() OVER (PARTITION BY bucket_ts ORDER BY cnt DESC, group_key) AS pos FROM (%s)",
		outer, inner)
	stmt := fmt.Sprintf("SELECT %s FROM (%s) WHERE pos <= ?", outer, ranked) + ordering
	args = append(args, plan.Limit)
	return stmt, args, nil
}

func scanAggregateRow(rows *sql.Rows, plan *Plan) (AggregateRow, error) {
	var (
		row   AggregateRow
		group sql.NullString
		sum   sql.NullFloat64
		avg   sql.NullFloat64
	)

	dest := []any{&row.Bucket}
	if plan.GroupBy != "" {
		dest = append(dest, &group)
	}
	dest = append(dest, &row.Count)
	if plan.Measure != "" {
		dest = append(dest, &sum, &avg)
	}

	if err := rows.Scan(dest...); err != nil {
		return AggregateRow{}, fmt.Errorf("failed to scan aggregate row: %w", err)
	}

	if plan.GroupBy != "" && group.Valid {
		row.Group = &group.String
	}
	if plan.Measure != "" && sum.Valid {
		row.Sum = &sum.Float64
	}
	if plan.Measure != "" && avg.Valid {
		row.Avg = &avg.Float64
	}
	return row, nil
}

type filterPair struct {
	name  string
	value any
}

func sortedFilters(filters map[string]any) []filterPair {
	pairs := make([]filterPair, 0, len(filters))
	for name, value := range filters {
		pairs = append(pairs, filterPair{name: name, value: value})
	}
	// Deterministic WHERE clause order keeps the SQL stable for logging.
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].name < pairs[j].name })
	return pairs
}

// bindValue maps canonical column values to SQLite storage classes:
// timestamps become Unix seconds, booleans become 0/1.
func bindValue(value any) any {
	switch v := value.(type) {
	case time.Time:
		return v.Unix()
	case bool:
		if v {
			return int64(1)
		}
		return int64(0)
	default:
		return value
	}
}

func quote(name string) string {
	return `"` + name + `"`
}

func validateIdentifier(name string) error {
	if !identifier.MatchString(name) {
		return fmt.Errorf("invalid identifier: %q", name)
	}
	return nil
}
