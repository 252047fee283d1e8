package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"weblog-analytics/internal/models"
	"weblog-analytics/internal/queries"

	"github.com/go-chi/chi/v5"
)

type queryHandler struct {
	queryService queries.QueryService
}

func NewQueryHandler(queryService queries.QueryService) AppHttpHandler {
	return &queryHandler{
		queryService: queryService,
	}
}

// Handle processes GET /services/{service}/query requests.
func (h *queryHandler) Handle(w http.ResponseWriter, r *http.Request) error {
	spec, err := parseQuerySpec(r)
	if err != nil {
		return err
	}

	result, err := h.queryService.Query(r.Context(), spec)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, result)
}

// parseQuerySpec maps the query string onto a QuerySpec. Only syntax is
// checked here; whether the columns exist is decided against the service
// schema by the query service.
func parseQuerySpec(r *http.Request) (*models.QuerySpec, error) {
	params := r.URL.Query()

	from, err := time.Parse(time.RFC3339, params.Get("from"))
	if err != nil {
		return nil, errInvalidParam("from", params.Get("from"))
	}
	to, err := time.Parse(time.RFC3339, params.Get("to"))
	if err != nil {
		return nil, errInvalidParam("to", params.Get("to"))
	}

	granularity := models.GranularityHour
	if raw := params.Get("granularity"); raw != "" {
		granularity, err = models.ParseGranularity(raw)
		if err != nil {
			return nil, errInvalidParam("granularity", raw)
		}
	}

	spec := &models.QuerySpec{
		Service:     chi.URLParam(r, "service"),
		From:        from,
		To:          to,
		Granularity: granularity,
		GroupBy:     params.Get("group_by"),
		Measure:     params.Get("measure"),
		Distinct:    params.Get("distinct"),
	}

	if raw := params.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return nil, errInvalidParam("limit", raw)
		}
		spec.Limit = limit
	}

	if raw := params.Get("fold_other"); raw != "" {
		foldOther, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errInvalidParam("fold_other", raw)
		}
		spec.FoldOther = foldOther
	}

	// Equality filters arrive as repeated filter=column=value pairs.
	for _, raw := range params["filter"] {
		column, value, found := strings.Cut(raw, "=")
		if !found || column == "" {
			return nil, errInvalidParam("filter", raw)
		}
		if spec.Filters == nil {
			spec.Filters = make(map[string]string)
		}
		spec.Filters[column] = value
	}

	return spec, nil
}
