package http

import (
	"net/http"

	"weblog-analytics/internal/queries"

	"github.com/goccy/go-json"
)

type servicesHandler struct {
	queryService queries.QueryService
}

func NewServicesHandler(queryService queries.QueryService) AppHttpHandler {
	return &servicesHandler{
		queryService: queryService,
	}
}

// ServicesResponse lists the services that have a persisted table.
type ServicesResponse struct {
	Services []string `json:"services"`
}

// Handle processes GET /services requests.
func (h *servicesHandler) Handle(w http.ResponseWriter, r *http.Request) error {
	services, err := h.queryService.Services(r.Context())
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, ServicesResponse{Services: services})
}

func writeJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}
