package http

import (
	"net/http"

	"weblog-analytics/internal/ingestors"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

type AppHttpHandler interface {
	Handle(w http.ResponseWriter, r *http.Request) error
}

type ingestHandler struct {
	ingestionService ingestors.IngestionService
}

func NewIngestHandler(ingestionService ingestors.IngestionService) AppHttpHandler {
	return &ingestHandler{
		ingestionService: ingestionService,
	}
}

// Handle processes POST /services/{service}/logs requests. The body is
// either one event object or an array of them; events are staged in the
// service buffer and acknowledged with 202 before they are persisted.
// The whole body is validated before any event is staged, so a rejected
// request stages nothing.
func (h *ingestHandler) Handle(w http.ResponseWriter, r *http.Request) error {
	service := chi.URLParam(r, "service")

	events, err := decodeEvents(r)
	if err != nil {
		return err
	}

	for _, fields := range events {
		if err := h.ingestionService.Ingest(r.Context(), service, fields); err != nil {
			return err
		}
	}

	w.WriteHeader(http.StatusAccepted)
	return nil
}

func decodeEvents(r *http.Request) ([]map[string]any, error) {
	var payload any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return nil, errMalformedBody(err)
	}

	switch body := payload.(type) {
	case map[string]any:
		if len(body) == 0 {
			return nil, errMalformedBody(nil)
		}
		return []map[string]any{body}, nil
	case []any:
		events := make([]map[string]any, 0, len(body))
		for _, element := range body {
			// Empty objects are rejected here so the batch fails before
			// any of its events reach a buffer.
			fields, ok := element.(map[string]any)
			if !ok || len(fields) == 0 {
				return nil, errMalformedBody(nil)
			}
			events = append(events, fields)
		}
		return events, nil
	}
	return nil, errMalformedBody(nil)
}
