package buffers

import (
	"sort"
	"sync"

	"weblog-analytics/internal/models"
	"weblog-analytics/internal/shared/metrics"
)

// Buffer is the append-only staging area for one service's records
// between flushes. Append is the ingestion hot path: a short critical
// section around a slice push, never any I/O.
type Buffer struct {
	mu      sync.Mutex
	records []models.Record
	// staged mirrors len(records) into the buffered_records gauge;
	// nil for buffers created outside a Set.
	staged metrics.Gauge
}

// Append pushes a record to the tail, preserving arrival order.
func (b *Buffer) Append(record models.Record) {
	b.mu.Lock()
	b.records = append(b.records, record)
	b.mu.Unlock()

	if b.staged != nil {
		b.staged.Inc()
	}
}

// Swap detaches the buffered records and leaves the buffer empty.
// Ownership of the returned slice transfers to the caller; the records
// are no longer visible through the buffer.
func (b *Buffer) Swap() []models.Record {
	b.mu.Lock()
	detached := b.records
	b.records = nil
	b.mu.Unlock()

	if b.staged != nil {
		b.staged.Sub(float64(len(detached)))
	}
	return detached
}

// Len returns the number of records currently staged.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}

// Set owns one Buffer per service, created lazily on first use and kept
// for the process lifetime.
type Set struct {
	mu      sync.RWMutex
	buffers map[string]*Buffer
}

func NewSet() *Set {
	return &Set{buffers: make(map[string]*Buffer)}
}

// For returns the service's buffer, creating it if needed.
func (s *Set) For(service string) *Buffer {
	s.mu.RLock()
	buffer, ok := s.buffers[service]
	s.mu.RUnlock()
	if ok {
		return buffer
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if buffer, ok = s.buffers[service]; ok {
		return buffer
	}
	buffer = &Buffer{staged: metricBufferedRecords.WithLabelValues(service)}
	s.buffers[service] = buffer
	return buffer
}

// Services returns the known service names in stable order.
func (s *Set) Services() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.buffers))
	for name := range s.buffers {
		names = append(names, name)
	}
	s.mu.RUnlock()

	sort.Strings(names)
	return names
}
