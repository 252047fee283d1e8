package buffers

import (
	"fmt"
	"sync"
	"testing"

	"weblog-analytics/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_AppendPreservesOrder(t *testing.T) {
	t.Parallel()

	buffer := &Buffer{}
	for i := 0; i < 5; i++ {
		buffer.Append(models.Record{"path": fmt.Sprintf("/%d", i)})
	}

	detached := buffer.Swap()
	require.Len(t, detached, 5)
	for i, record := range detached {
		assert.Equal(t, fmt.Sprintf("/%d", i), record["path"])
	}
	assert.Equal(t, 0, buffer.Len(), "buffer must be empty after swap")
}

func TestBuffer_SwapTransfersOwnership(t *testing.T) {
	t.Parallel()

	buffer := &Buffer{}
	buffer.Append(models.Record{"status": int64(200)})

	first := buffer.Swap()
	assert.Len(t, first, 1)

	// A second swap sees nothing: no record is visible in two places.
	second := buffer.Swap()
	assert.Empty(t, second)

	// Appends after the swap land in the fresh backing slice.
	buffer.Append(models.Record{"status": int64(404)})
	assert.Equal(t, 1, buffer.Len())
	assert.Len(t, first, 1)
}

func TestBuffer_ConcurrentAppendsNeverLoseRecords(t *testing.T) {
	t.Parallel()

	const producers = 8
	const perProducer = 500

	buffer := &Buffer{}
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				buffer.Append(models.Record{"status": int64(200)})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, producers*perProducer, buffer.Len())
}

func TestBuffer_ConcurrentAppendsWithInterleavedSwap(t *testing.T) {
	t.Parallel()

	const producers = 8
	const perProducer = 500

	buffer := &Buffer{}
	var wg sync.WaitGroup
	swapped := make(chan []models.Record, 1)

	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				buffer.Append(models.Record{"status": int64(200)})
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		swapped <- buffer.Swap()
	}()
	wg.Wait()

	// Split accounting: before-swap count plus after-swap count is exact.
	total := len(<-swapped) + buffer.Len()
	assert.Equal(t, producers*perProducer, total)
}

func TestSet_ForIsStablePerService(t *testing.T) {
	t.Parallel()

	set := NewSet()
	a := set.For("alpha")
	b := set.For("beta")
	assert.NotSame(t, a, b)
	assert.Same(t, a, set.For("alpha"))
}

func TestSet_BufferedRecordsGaugeTracksDepth(t *testing.T) {
	t.Parallel()

	// Unique service name: the gauge is shared process state.
	const service = "gauge_depth_demo"
	gauge := metricBufferedRecords.WithLabelValues(service)

	set := NewSet()
	buffer := set.For(service)

	buffer.Append(models.Record{"status": int64(200)})
	buffer.Append(models.Record{"status": int64(404)})
	assert.Equal(t, 2.0, testutil.ToFloat64(gauge))

	buffer.Swap()
	assert.Equal(t, 0.0, testutil.ToFloat64(gauge))
}

func TestSet_ServicesSorted(t *testing.T) {
	t.Parallel()

	set := NewSet()
	set.For("zulu")
	set.For("alpha")
	set.For("mike")

	assert.Equal(t, []string{"alpha", "mike", "zulu"}, set.Services())
}
