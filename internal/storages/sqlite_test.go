package storages_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"weblog-analytics/internal/models"
	"weblog-analytics/internal/storages"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateway(t *testing.T) storages.Gateway {
	t.Helper()

	gateway, err := storages.NewSQLiteGateway(filepath.Join(t.TempDir(), "analytics.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = gateway.Close() })
	return gateway
}

func demoSchema() *models.Schema {
	return models.NewSchema("demo", []models.Column{
		{Name: models.ColumnDatetime, Type: models.ColumnTimestamp},
		{Name: "status", Type: models.ColumnInteger},
		{Name: "path", Type: models.ColumnText},
		{Name: "generation_time_milli", Type: models.ColumnFloat},
		{Name: "is_robot", Type: models.ColumnBoolean},
	})
}

func TestEnsureTable_CreatesAndExtends(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gateway := newGateway(t)

	schema := demoSchema()
	require.NoError(t, gateway.EnsureTable(ctx, schema))

	// Column types survive the SQL round trip.
	persisted, ok, err := gateway.TableColumns(ctx, "demo")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, schema.Columns, persisted.Columns)

	// Re-running with the same schema is a no-op.
	require.NoError(t, gateway.EnsureTable(ctx, schema))

	// Additive DDL only creates what is missing.
	extended := schema.Extend([]models.Column{{Name: "country_iso_code", Type: models.ColumnText}})
	require.NoError(t, gateway.EnsureTable(ctx, extended))

	persisted, ok, err = gateway.TableColumns(ctx, "demo")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, extended.Columns, persisted.Columns)
}

func TestTableColumns_MissingTable(t *testing.T) {
	t.Parallel()

	gateway := newGateway(t)

	_, ok, err := gateway.TableColumns(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBulkInsertAndAggregate_CountsPerBucket(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gateway := newGateway(t)
	schema := demoSchema()
	require.NoError(t, gateway.EnsureTable(ctx, schema))

	noon := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	records := []models.Record{
		{models.ColumnDatetime: noon.Add(5 * time.Second), "status": int64(200), "path": "/", "generation_time_milli": 0.1, "is_robot": false},
		{models.ColumnDatetime: noon.Add(59 * time.Second), "status": int64(404), "path": "/missing", "generation_time_milli": 0.3, "is_robot": false},
		{models.ColumnDatetime: noon.Add(90 * time.Second), "status": int64(200), "path": "/", "generation_time_milli": 0.2, "is_robot": true},
	}

	inserted, err := gateway.BulkInsert(ctx, schema, records)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	rows, err := gateway.Aggregate(ctx, &storages.Plan{
		Service:       "demo",
		BucketSeconds: 60,
		From:          noon.Unix(),
		To:            noon.Add(2 * time.Minute).Unix(),
	})
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, noon.Unix(), rows[0].Bucket)
	assert.Equal(t, int64(2), rows[0].Count)
	assert.Equal(t, noon.Add(time.Minute).Unix(), rows[1].Bucket)
	assert.Equal(t, int64(1), rows[1].Count)
}

func TestAggregate_DistinctCountsUniqueValues(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gateway := newGateway(t)
	schema := demoSchema()
	require.NoError(t, gateway.EnsureTable(ctx, schema))

	noon := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	records := []models.Record{
		{models.ColumnDatetime: noon, "status": int64(200), "path": "/"},
		{models.ColumnDatetime: noon.Add(time.Second), "status": int64(200), "path": "/"},
		{models.ColumnDatetime: noon.Add(2 * time.Second), "status": int64(200), "path": "/about"},
	}
	_, err := gateway.BulkInsert(ctx, schema, records)
	require.NoError(t, err)

	rows, err := gateway.Aggregate(ctx, &storages.Plan{
		Service:       "demo",
		BucketSeconds: 60,
		From:          noon.Unix(),
		To:            noon.Add(time.Minute).Unix(),
		Distinct:      "path",
	})
	require.NoError(t, err)

	// Three rows, two unique paths.
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].Count)

	_, err = gateway.Aggregate(ctx, &storages.Plan{
		Service:       "demo",
		BucketSeconds: 60,
		From:          noon.Unix(),
		To:            noon.Add(time.Minute).Unix(),
		Distinct:      `path"; DROP TABLE demo; --`,
	})
	require.Error(t, err)
}

func TestAggregate_GroupByWithMeasureAndFilters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gateway := newGateway(t)
	schema := demoSchema()
	require.NoError(t, gateway.EnsureTable(ctx, schema))

	noon := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	records := []models.Record{
		{models.ColumnDatetime: noon, "status": int64(200), "path": "/", "generation_time_milli": 0.1},
		{models.ColumnDatetime: noon.Add(time.Second), "status": int64(200), "path": "/", "generation_time_milli": 0.3},
		{models.ColumnDatetime: noon.Add(2 * time.Second), "status": int64(404), "path": "/missing", "generation_time_milli": 0.5},
	}
	_, err := gateway.BulkInsert(ctx, schema, records)
	require.NoError(t, err)

	rows, err := gateway.Aggregate(ctx, &storages.Plan{
		Service:       "demo",
		BucketSeconds: 60,
		From:          noon.Unix(),
		To:            noon.Add(time.Minute).Unix(),
		GroupBy:       "status",
		Measure:       "generation_time_milli",
		Limit:         10,
	})
	require.NoError(t, err)

	// Groups come back count-descending, ties broken by group key.
	require.Len(t, rows, 2)
	assert.Equal(t, "200", *rows[0].Group)
	assert.Equal(t, int64(2), rows[0].Count)
	assert.InDelta(t, 0.4, *rows[0].Sum, 1e-9)
	assert.InDelta(t, 0.2, *rows[0].Avg, 1e-9)
	assert.Equal(t, "404", *rows[1].Group)
	assert.Equal(t, int64(1), rows[1].Count)

	// Equality filters narrow the aggregate input.
	filtered, err := gateway.Aggregate(ctx, &storages.Plan{
		Service:       "demo",
		BucketSeconds: 60,
		From:          noon.Unix(),
		To:            noon.Add(time.Minute).Unix(),
		Filters:       map[string]any{"status": int64(404), "path": "/missing"},
	})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, int64(1), filtered[0].Count)
}

func TestAggregate_TopNCapsGroupsPerBucket(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gateway := newGateway(t)
	schema := demoSchema()
	require.NoError(t, gateway.EnsureTable(ctx, schema))

	noon := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	var records []models.Record
	for i, path := range []string{"/a", "/a", "/a", "/b", "/b", "/c"} {
		records = append(records, models.Record{
			models.ColumnDatetime: noon.Add(time.Duration(i) * time.Second),
			"status":              int64(200),
			"path":                path,
		})
	}
	_, err := gateway.BulkInsert(ctx, schema, records)
	require.NoError(t, err)

	rows, err := gateway.Aggregate(ctx, &storages.Plan{
		Service:       "demo",
		BucketSeconds: 60,
		From:          noon.Unix(),
		To:            noon.Add(time.Minute).Unix(),
		GroupBy:       "path",
		Limit:         2,
	})
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "/a", *rows[0].Group)
	assert.Equal(t, int64(3), rows[0].Count)
	assert.Equal(t, "/b", *rows[1].Group)
	assert.Equal(t, int64(2), rows[1].Count)
}

func TestBulkInsert_UncoercibleFieldBecomesNull(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gateway := newGateway(t)
	schema := demoSchema()
	require.NoError(t, gateway.EnsureTable(ctx, schema))

	noon := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	inserted, err := gateway.BulkInsert(ctx, schema, []models.Record{
		{models.ColumnDatetime: noon, "status": "teapot", "path": "/"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	// The row landed, its bad field did not.
	rows, err := gateway.Aggregate(ctx, &storages.Plan{
		Service:       "demo",
		BucketSeconds: 60,
		From:          noon.Unix(),
		To:            noon.Add(time.Minute).Unix(),
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].Count)

	filtered, err := gateway.Aggregate(ctx, &storages.Plan{
		Service:       "demo",
		BucketSeconds: 60,
		From:          noon.Unix(),
		To:            noon.Add(time.Minute).Unix(),
		Filters:       map[string]any{"status": int64(418)},
	})
	require.NoError(t, err)
	assert.Empty(t, filtered)
}

func TestListServices(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gateway := newGateway(t)

	services, err := gateway.ListServices(ctx)
	require.NoError(t, err)
	assert.Empty(t, services)

	require.NoError(t, gateway.EnsureTable(ctx, models.NewSchema("shop", demoSchema().Columns)))
	require.NoError(t, gateway.EnsureTable(ctx, models.NewSchema("demo", demoSchema().Columns)))

	services, err = gateway.ListServices(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"demo", "shop"}, services)
}

func TestBulkInsert_RejectsInjectableServiceName(t *testing.T) {
	t.Parallel()

	gateway := newGateway(t)

	schema := models.NewSchema("demo; DROP TABLE demo", demoSchema().Columns)
	_, err := gateway.BulkInsert(context.Background(), schema, []models.Record{{"status": int64(200)}})
	require.Error(t, err)
}
