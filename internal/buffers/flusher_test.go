package buffers_test

import (
	"context"
	"testing"
	"time"

	"weblog-analytics/internal/buffers"
	"weblog-analytics/internal/models"
	"weblog-analytics/internal/schemas"
	storagemocks "weblog-analytics/internal/storages/mocks"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func reconciled(t *testing.T, gateway *storagemocks.MockGateway, registry *schemas.Registry, service string, records ...models.Record) {
	t.Helper()

	gateway.EXPECT().TableColumns(gomock.Any(), service).Return(nil, false, nil)
	gateway.EXPECT().EnsureTable(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	for _, record := range records {
		_, err := registry.Reconcile(context.Background(), service, record)
		require.NoError(t, err)
	}
}

func TestFlushAll_CommitsInAppendOrderAndEmptiesBuffer(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gateway := storagemocks.NewMockGateway(ctrl)
	registry := schemas.NewRegistry(gateway, nil, zerolog.Nop())
	set := buffers.NewSet()

	first := models.Record{"status": int64(200), "path": "/a"}
	second := models.Record{"status": int64(404), "path": "/b"}
	reconciled(t, gateway, registry, "demo", first, second)

	set.For("demo").Append(first)
	set.For("demo").Append(second)

	gateway.EXPECT().BulkInsert(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, schema *models.Schema, records []models.Record) (int, error) {
			assert.Equal(t, "demo", schema.Service)
			require.Len(t, records, 2)
			assert.Equal(t, "/a", records[0]["path"])
			assert.Equal(t, "/b", records[1]["path"])
			return len(records), nil
		})

	flusher := buffers.NewFlusher(set, registry, gateway, time.Second, zerolog.Nop())
	flusher.FlushAll(context.Background())

	assert.Equal(t, 0, set.For("demo").Len())
}

func TestFlushAll_SkipsEmptyBuffers(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gateway := storagemocks.NewMockGateway(ctrl)
	registry := schemas.NewRegistry(gateway, nil, zerolog.Nop())
	set := buffers.NewSet()
	set.For("idle")

	// No BulkInsert expectation: flushing an empty buffer must not touch storage.
	flusher := buffers.NewFlusher(set, registry, gateway, time.Second, zerolog.Nop())
	flusher.FlushAll(context.Background())
}

func TestFlushAll_FailedCommitDropsBatchAndContinues(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gateway := storagemocks.NewMockGateway(ctrl)
	registry := schemas.NewRegistry(gateway, nil, zerolog.Nop())
	set := buffers.NewSet()

	record := models.Record{"status": int64(500)}
	reconciled(t, gateway, registry, "demo", record)
	set.For("demo").Append(record)

	gateway.EXPECT().BulkInsert(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, assert.AnError)

	flusher := buffers.NewFlusher(set, registry, gateway, time.Second, zerolog.Nop())
	flusher.FlushAll(context.Background())

	// The batch is gone, not requeued, and ingestion keeps going.
	assert.Equal(t, 0, set.For("demo").Len())
	set.For("demo").Append(record)
	assert.Equal(t, 1, set.For("demo").Len())
}

func TestStop_PerformsFinalFlush(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gateway := storagemocks.NewMockGateway(ctrl)
	registry := schemas.NewRegistry(gateway, nil, zerolog.Nop())
	set := buffers.NewSet()

	record := models.Record{"status": int64(200)}
	reconciled(t, gateway, registry, "demo", record)
	set.For("demo").Append(record)

	gateway.EXPECT().BulkInsert(gomock.Any(), gomock.Any(), gomock.Any()).Return(1, nil)

	flusher := buffers.NewFlusher(set, registry, gateway, time.Hour, zerolog.Nop())
	flusher.Start(context.Background())
	flusher.Stop()

	assert.Equal(t, 0, set.For("demo").Len())
}
