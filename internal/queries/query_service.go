package queries

import (
	"context"
	"regexp"
	"time"

	"weblog-analytics/internal/models"
	"weblog-analytics/internal/schemas"
	"weblog-analytics/internal/shared/loggers"
	"weblog-analytics/internal/shared/metrics"
	"weblog-analytics/internal/shared/svcerrors"
	"weblog-analytics/internal/storages"
)

var validService = regexp.MustCompile(`^\w+$`)

//go:generate mockgen -source=query_service.go -destination=./mocks/query_service_mock.go -package=mocks
type QueryService interface {
	// Query validates a spec, compiles it into an aggregate plan, runs it
	// through the storage gateway and returns a bucket-dense result.
	Query(ctx context.Context, spec *models.QuerySpec) (*models.QueryResult, error)

	// Services lists all services with a persisted table.
	Services(ctx context.Context) ([]string, error)
}

type queryService struct {
	gateway  storages.Gateway
	topLimit int
}

// NewQueryService creates a query service; topLimit is the default group
// cap for top-N requests that do not carry their own limit.
func NewQueryService(gateway storages.Gateway, topLimit int) QueryService {
	return &queryService{gateway: gateway, topLimit: topLimit}
}

func (s *queryService) Query(ctx context.Context, spec *models.QuerySpec) (*models.QueryResult, error) {
	start := time.Now()
	result, err := s.query(ctx, spec)

	errorCode := metrics.ValueNoError
	if err != nil {
		if svcErr, ok := svcerrors.As(err); ok {
			errorCode = svcErr.Code
		}
	}
	metricQueriesExecutedTotal.WithLabelValues(errorCode).Inc()
	metricQueryDuration.WithLabelValues(errorCode).Observe(time.Since(start).Seconds())

	return result, err
}

func (s *queryService) query(ctx context.Context, spec *models.QuerySpec) (*models.QueryResult, error) {
	plan, err := s.compile(ctx, spec)
	if err != nil {
		return nil, err
	}

	loggers.Ctx(ctx).Debug().
		Str(loggers.FieldService, spec.Service).
		Msgf("running aggregate query over [%s, %s)", spec.From.Format(time.RFC3339), spec.To.Format(time.RFC3339))

	rows, err := s.gateway.Aggregate(ctx, plan)
	if err != nil {
		return nil, errInternalAggregateFailed(err)
	}

	result := &models.QueryResult{Service: spec.Service, Granularity: spec.Granularity}
	result.Rows = s.densify(spec, rows)

	if spec.FoldOther && spec.GroupBy != "" {
		if err := s.foldOther(ctx, plan, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// compile validates the spec against the persisted schema and builds the
// gateway plan. Query-path validation is strict: unknown columns reject
// the request instead of silently degrading the answer.
func (s *queryService) compile(ctx context.Context, spec *models.QuerySpec) (*storages.Plan, error) {
	if !validService.MatchString(spec.Service) {
		return nil, errUnknownService(spec.Service)
	}
	if spec.From.After(spec.To) {
		return nil, errInvalidRange(spec.From, spec.To)
	}
	if _, err := models.ParseGranularity(string(spec.Granularity)); err != nil {
		return nil, errInvalidGranularity(string(spec.Granularity))
	}

	schema, ok, err := s.gateway.TableColumns(ctx, spec.Service)
	if err != nil {
		return nil, errInternalSchemaLookupFailed(err)
	}
	if !ok {
		return nil, errUnknownService(spec.Service)
	}

	if spec.GroupBy != "" && !schema.HasColumn(spec.GroupBy) {
		return nil, errUnknownDimension(spec.GroupBy)
	}
	if spec.Measure != "" {
		columnType, ok := schema.ColumnType(spec.Measure)
		if !ok {
			return nil, errUnknownDimension(spec.Measure)
		}
		if !columnType.IsNumeric() {
			return nil, errInvalidMeasure(spec.Measure)
		}
	}
	if spec.Distinct != "" {
		if !schema.HasColumn(spec.Distinct) {
			return nil, errUnknownDimension(spec.Distinct)
		}
		// A distinct count is not additive across groups, so the folded
		// remainder cannot be computed from the two passes.
		if spec.FoldOther {
			return nil, errDistinctWithFoldOther(spec.Distinct)
		}
	}

	filters, err := coerceFilters(schema, spec.Filters)
	if err != nil {
		return nil, err
	}

	limit := 0
	if spec.GroupBy != "" {
		limit = spec.Limit
		if limit <= 0 {
			limit = s.topLimit
		}
	}

	return &storages.Plan{
		Service:       spec.Service,
		BucketSeconds: spec.Granularity.Seconds(),
		From:          spec.From.Unix(),
		To:            spec.To.Unix(),
		GroupBy:       spec.GroupBy,
		Filters:       filters,
		Measure:       spec.Measure,
		Distinct:      spec.Distinct,
		Limit:         limit,
	}, nil
}

// coerceFilters converts equality filter values to their column types so
// "status=404" compares as an integer, not a string.
func coerceFilters(schema *models.Schema, filters map[string]string) (map[string]any, error) {
	if len(filters) == 0 {
		return nil, nil
	}

	coerced := make(map[string]any, len(filters))
	for name, raw := range filters {
		columnType, ok := schema.ColumnType(name)
		if !ok {
			return nil, errUnknownDimension(name)
		}
		value, ok := schemas.Coerce(raw, columnType)
		if !ok || value == nil {
			return nil, errInvalidFilter(name, raw)
		}
		coerced[name] = value
	}
	return coerced, nil
}

// densify turns the gateway tuples into a bucket-dense series over
// [From, To): a bucket with no matching rows is reported as a zero-count
// row, never omitted, so charts stay continuous.
func (s *queryService) densify(spec *models.QuerySpec, rows []storages.AggregateRow) []models.BucketRow {
	width := spec.Granularity.Duration()
	first := spec.Granularity.Truncate(spec.From)

	var out []models.BucketRow
	i := 0
	for bucket := first; bucket.Before(spec.To); bucket = bucket.Add(width) {
		ts := bucket.Unix()
		matched := false
		for i < len(rows) && rows[i].Bucket == ts {
			out = append(out, toBucketRow(bucket, rows[i]))
			matched = true
			i++
		}
		if !matched {
			out = append(out, models.BucketRow{BucketTime: bucket})
		}
	}
	return out
}

// foldOther appends one synthetic "other" row per bucket holding the
// count mass beyond the top-N groups. It costs one extra ungrouped pass.
func (s *queryService) foldOther(ctx context.Context, plan *storages.Plan, result *models.QueryResult) error {
	totalPlan := *plan
	totalPlan.GroupBy = ""
	totalPlan.Measure = ""
	totalPlan.Limit = 0

	totals, err := s.gateway.Aggregate(ctx, &totalPlan)
	if err != nil {
		return errInternalAggregateFailed(err)
	}

	totalByBucket := make(map[int64]int64, len(totals))
	for _, row := range totals {
		totalByBucket[row.Bucket] = row.Count
	}

	topByBucket := make(map[int64]int64)
	for _, row := range result.Rows {
		topByBucket[row.BucketTime.Unix()] += row.Count
	}

	var folded []models.BucketRow
	for i := 0; i < len(result.Rows); i++ {
		row := result.Rows[i]
		folded = append(folded, row)

		bucket := row.BucketTime.Unix()
		lastOfBucket := i+1 == len(result.Rows) || !result.Rows[i+1].BucketTime.Equal(row.BucketTime)
		if !lastOfBucket {
			continue
		}
		if rest := totalByBucket[bucket] - topByBucket[bucket]; rest > 0 {
			other := models.OtherGroup
			folded = append(folded, models.BucketRow{
				BucketTime: row.BucketTime,
				GroupKey:   &other,
				Count:      rest,
			})
		}
	}
	result.Rows = folded
	return nil
}

func (s *queryService) Services(ctx context.Context) ([]string, error) {
	services, err := s.gateway.ListServices(ctx)
	if err != nil {
		return nil, errInternalListServicesFailed(err)
	}
	return services, nil
}

func toBucketRow(bucket time.Time, row storages.AggregateRow) models.BucketRow {
	return models.BucketRow{
		BucketTime: bucket,
		GroupKey:   row.Group,
		Count:      row.Count,
		Sum:        row.Sum,
		Avg:        row.Avg,
	}
}
