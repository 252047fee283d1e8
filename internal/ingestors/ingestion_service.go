package ingestors

import (
	"context"
	"regexp"
	"strings"

	"weblog-analytics/internal/buffers"
	"weblog-analytics/internal/enrichers"
	"weblog-analytics/internal/models"
	"weblog-analytics/internal/schemas"
	"weblog-analytics/internal/shared/loggers"
	"weblog-analytics/internal/shared/metrics"
)

// validService matches the table-name shape a service must have.
var validService = regexp.MustCompile(`^\w+$`)

//go:generate mockgen -source=ingestion_service.go -destination=./mocks/ingestion_service_mock.go -package=mocks
type IngestionService interface {
	// Ingest enriches one decoded event and stages it in the service
	// buffer. It returns an error only when the caller addressed a
	// malformed service or an empty record; everything that can go wrong
	// with the record's contents is absorbed here, the ingestion path
	// never stops over one bad event.
	Ingest(ctx context.Context, service string, fields map[string]any) error
}

type ingestionService struct {
	enricher *enrichers.Enricher
	registry *schemas.Registry
	buffers  *buffers.Set
}

func NewIngestionService(enricher *enrichers.Enricher, registry *schemas.Registry, buffers *buffers.Set) IngestionService {
	return &ingestionService{
		enricher: enricher,
		registry: registry,
		buffers:  buffers,
	}
}

func (s *ingestionService) Ingest(ctx context.Context, service string, fields map[string]any) error {
	name := strings.ToLower(strings.TrimSpace(service))
	if !validService.MatchString(name) {
		svcErr := errInvalidService(service)
		metricRecordsIngestedTotal.WithLabelValues(svcErr.Code).Inc()
		return svcErr
	}
	if len(fields) == 0 {
		svcErr := errEmptyRecord()
		metricRecordsIngestedTotal.WithLabelValues(svcErr.Code).Inc()
		return svcErr
	}

	record := s.enricher.Enrich(fields)

	// Reconciliation and the matching DDL run under the per-service lock;
	// a failure drops this record but must not surface to the listener.
	if _, err := s.registry.Reconcile(ctx, name, record); err != nil {
		loggers.Ctx(ctx).Error().
			Err(err).
			Str(loggers.FieldService, name).
			Msg("schema reconciliation failed, record dropped")
		metricRecordsDroppedTotal.WithLabelValues(name).Inc()
		return nil
	}

	s.appendRecord(name, record)
	metricRecordsIngestedTotal.WithLabelValues(metrics.ValueNoError).Inc()
	return nil
}

// appendRecord is the hot path: a single lock-guarded push, no I/O.
func (s *ingestionService) appendRecord(service string, record models.Record) {
	s.buffers.For(service).Append(record)
}
