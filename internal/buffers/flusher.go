package buffers

import (
	"context"
	"sync"
	"time"

	"weblog-analytics/internal/schemas"
	"weblog-analytics/internal/shared/loggers"
	"weblog-analytics/internal/shared/ulid"
	"weblog-analytics/internal/storages"
)

// Flusher drains service buffers on a fixed period and hands each
// detached batch to the storage gateway as one bulk commit. The buffer
// lock is held only for the swap; the commit runs outside it so a slow
// insert never stalls ingestion.
//
// Durability is explicitly at-most-once: a batch whose commit fails is
// dropped and counted, never requeued.
type Flusher interface {
	Start(ctx context.Context)
	Stop()
	// FlushAll forces one immediate flush cycle over all buffers.
	FlushAll(ctx context.Context)
}

type flusher struct {
	buffers  *Set
	registry *schemas.Registry
	gateway  storages.Gateway
	interval time.Duration

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}

	logger loggers.Logger
}

func NewFlusher(buffers *Set, registry *schemas.Registry, gateway storages.Gateway, interval time.Duration, logger loggers.Logger) Flusher {
	return &flusher{
		buffers:  buffers,
		registry: registry,
		gateway:  gateway,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

// Start spawns the periodic flush task. Ticks never overlap: the next
// flush waits for the previous one, which gives at-most-once-per-tick
// semantics per service.
func (f *flusher) Start(ctx context.Context) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()

		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-f.stopCh:
				return
			case <-ticker.C:
				f.FlushAll(ctx)
			}
		}
	}()
}

// Stop halts the timer and performs one final flush so records buffered
// since the last tick are not lost on graceful shutdown.
func (f *flusher) Stop() {
	f.stopOnce.Do(func() { close(f.stopCh) })
	f.wg.Wait()
	f.FlushAll(context.Background())
}

// FlushAll drains every non-empty buffer once. Each service is swapped
// and committed independently; one failed commit neither blocks nor
// poisons the others.
func (f *flusher) FlushAll(ctx context.Context) {
	for _, service := range f.buffers.Services() {
		f.flushService(ctx, service)
	}
}

func (f *flusher) flushService(ctx context.Context, service string) {
	batch := f.buffers.For(service).Swap()
	if len(batch) == 0 {
		return
	}

	logger := f.logger.With().
		Str(loggers.FieldService, service).
		Str(loggers.FieldFlushID, ulid.NewULID()).
		Int(loggers.FieldBatchSize, len(batch)).
		Logger()

	schema, ok := f.registry.Schema(service)
	if !ok {
		// Records can only be buffered after reconciliation, so a missing
		// schema means the registry entry never published; drop the batch.
		logger.Error().Msg("no schema for buffered service, batch discarded")
		metricFlushFailuresTotal.WithLabelValues(service).Inc()
		return
	}

	count, err := f.gateway.BulkInsert(ctx, schema, batch)
	if err != nil {
		// At-most-once: the interval's data is lost, ingestion continues.
		logger.Error().Err(err).Msg("bulk commit failed, batch discarded")
		metricFlushFailuresTotal.WithLabelValues(service).Inc()
		return
	}

	metricBatchesFlushedTotal.WithLabelValues(service).Inc()
	logger.Debug().Msgf("committed %d records", count)
}
